package preview

import (
	"context"
	"time"

	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/pollers"
	"github.com/rmitchellscott/qdither/internal/progress"
	"github.com/rmitchellscott/qdither/internal/sse"
)

// Event types sent on /api/events
const (
	EventStatus = "status"
	EventDone   = "done"
)

// StatusPoller broadcasts a status event whenever the cell changes.
// It stops once the cell is done.
type StatusPoller struct {
	*pollers.BasePoller
	cell   *progress.Cell
	events *sse.Service
	seen   uint64
}

// NewStatusPoller creates a poller reading cell every interval
func NewStatusPoller(cell *progress.Cell, events *sse.Service, interval time.Duration) *StatusPoller {
	p := &StatusPoller{
		cell:   cell,
		events: events,
	}
	p.BasePoller = pollers.NewBasePoller(pollers.DefaultConfig("preview-status", interval), p.poll)
	return p
}

func (p *StatusPoller) poll(ctx context.Context) error {
	v := p.cell.Version()
	if v == p.seen {
		return nil
	}
	p.seen = v

	snap := p.cell.Summary()
	p.events.Broadcast(sse.Event{Type: EventStatus, Data: newStatusPayload(snap)})

	if snap.Status == progress.Done {
		logging.DebugWithComponent(logging.ComponentPreview, "Run complete, status poller stopping")
		return pollers.ErrStop
	}
	return nil
}

// doneEvent reports the outcome of writing the output file
func doneEvent(outputPath string, saveErr error) sse.Event {
	data := map[string]any{"saved": saveErr == nil, "message": "Saved to " + outputPath}
	if saveErr != nil {
		data["message"] = "Couldn't save image buffer"
		data["error"] = saveErr.Error()
	}
	return sse.Event{Type: EventDone, Data: data}
}
