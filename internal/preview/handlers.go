package preview

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/imageprocessing"
	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/progress"
	"github.com/rmitchellscott/qdither/internal/sse"
)

// StatusPayload is the JSON body of /api/status and of status events
type StatusPayload struct {
	Status    progress.Status `json:"status"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Percent   float64         `json:"percent"`
	Palette   []string        `json:"palette"`
}

func newStatusPayload(snap progress.Snapshot) StatusPayload {
	hex := snap.Palette.Hex()
	if hex == nil {
		hex = []string{}
	}
	return StatusPayload{
		Status:    snap.Status,
		Width:     snap.Width,
		Height:    snap.Height,
		Processed: snap.Processed,
		Total:     snap.Total(),
		Percent:   snap.Percent(),
		Palette:   hex,
	}
}

func (s *Server) statusHandler(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, newStatusPayload(s.cell.Summary()))
}

func (s *Server) previewHandler(c *gin.Context) {
	snap := s.cell.Load()
	if snap.Status == progress.Waiting || len(snap.Pix) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No frame published yet", "status": snap.Status})
		return
	}

	data, err := encodeSnapshot(snap)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentPreview, "Failed to encode preview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode preview"})
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(http.StatusOK, imageprocessing.FormatPNG.ContentType(), data)
}

// encodeSnapshot renders a snapshot as PNG. Finished frames contain only palette
// colors and are written indexed; partial frames still hold source pixels.
func encodeSnapshot(snap progress.Snapshot) ([]byte, error) {
	buf := &dither.Buffer{Width: snap.Width, Height: snap.Height, Pix: snap.Pix}
	if snap.Status == progress.Done && len(snap.Palette) > 0 {
		return imageprocessing.Encode(buf, snap.Palette, imageprocessing.FormatPNG)
	}

	if err := buf.Validate(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, imageprocessing.FromBuffer(buf)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *Server) paletteHandler(c *gin.Context) {
	snap := s.cell.Summary()
	if len(snap.Palette) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Palette not selected yet"})
		return
	}

	data, err := imageprocessing.EncodeSwatchPNG(snap.Palette)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentPreview, "Failed to render palette", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render palette"})
		return
	}

	c.Data(http.StatusOK, imageprocessing.FormatPNG.ContentType(), data)
}

func (s *Server) eventsHandler(c *gin.Context) {
	client := s.events.AddClient(c.Writer)
	if client == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}
	defer s.events.RemoveClient(client.ID)

	// Late subscribers get the current state straight away
	s.events.Send(client, sse.Event{Type: EventStatus, Data: newStatusPayload(s.cell.Summary())})
	if done := s.completion(); done != nil {
		s.events.Send(client, *done)
	}

	select {
	case <-c.Request.Context().Done():
	case <-client.Done:
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>qdither</title></head>
<body style="background:#222;color:#eee;font-family:monospace">
<p id="status">WAIT</p>
<img id="preview" alt="" style="image-rendering:pixelated;max-width:100%">
<p><img src="/palette.png" alt=""></p>
<script>
const es = new EventSource("/api/events");
es.onmessage = (m) => {
  const e = JSON.parse(m.data);
  if (e.type === "status") {
    document.getElementById("status").textContent = e.data.status + " " + e.data.percent.toFixed(1) + "%";
    if (e.data.status !== "WAIT") document.getElementById("preview").src = "/preview.png?t=" + Date.now();
  }
  if (e.type === "done") { document.getElementById("status").textContent = e.data.message; es.close(); }
};
</script>
</body>
</html>
`

func (s *Server) indexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}
