package progress

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

// Status is the lifecycle state of a processing run
type Status int

const (
	Waiting Status = iota
	InProgress
	Done
)

// String returns the short tag shown to presentation clients
func (s Status) String() string {
	switch s {
	case Waiting:
		return "WAIT"
	case InProgress:
		return "PRNT"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the status as its tag
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status tag
func (s *Status) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	for _, candidate := range []Status{Waiting, InProgress, Done} {
		if candidate.String() == tag {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", tag)
}

// Snapshot is a copy of the pipeline state.
// Readers must not modify Palette.
type Snapshot struct {
	Pix       []rgb.Color
	Width     int
	Height    int
	Status    Status
	Palette   palette.Palette
	Processed int
	UpdatedAt time.Time
}

// Total returns the number of pixels in the image
func (s Snapshot) Total() int {
	return s.Width * s.Height
}

// Percent returns how much of the image has been processed
func (s Snapshot) Percent() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Processed) * 100 / float64(s.Total())
}

// Cell is the shared progress state between the processing goroutine (sole writer)
// and presentation readers. It implements dither.Observer.
// It holds its own copy of the pixels and patches in only the ranges a frame marks dirty.
type Cell struct {
	mu      sync.RWMutex
	state   Snapshot
	pix     []rgb.Color
	version uint64
	// copied counts pixels copied in from frames
	copied int
}

// NewCell returns a cell in the Waiting state
func NewCell() *Cell {
	return &Cell{state: Snapshot{Status: Waiting, UpdatedAt: time.Now()}}
}

// Publish stores the frame and marks the run in progress.
// Frames arriving after Done are ignored.
func (c *Cell) Publish(f dither.Frame) {
	c.store(f, InProgress)
}

// Finish stores the final frame and marks the run done
func (c *Cell) Finish(f dither.Frame) {
	c.store(f, Done)
}

// SetPalette publishes the active palette before any pixel has been processed
func (c *Cell) SetPalette(p palette.Palette) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == Done {
		return
	}
	c.state.Palette = p.Clone()
	c.state.UpdatedAt = time.Now()
	c.version++
}

func (c *Cell) store(f dither.Frame, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == Done {
		return
	}

	if c.canPatch(f) {
		for _, s := range f.Dirty {
			c.copied += copy(c.pix[s.From:s.To], f.Pix[s.From:s.To])
		}
	} else {
		c.pix = append(c.pix[:0], f.Pix...)
		c.copied += len(f.Pix)
	}

	pal := c.state.Palette
	if !samePalette(pal, f.Palette) {
		pal = f.Palette.Clone()
	}

	c.state = Snapshot{
		Width:     f.Width,
		Height:    f.Height,
		Status:    status,
		Palette:   pal,
		Processed: f.Processed,
		UpdatedAt: time.Now(),
	}
	c.version++
}

// canPatch reports whether the frame's dirty spans can be applied to the held pixels
func (c *Cell) canPatch(f dither.Frame) bool {
	if f.Dirty == nil || c.pix == nil || len(c.pix) != len(f.Pix) || c.state.Width != f.Width {
		return false
	}
	for _, s := range f.Dirty {
		if s.From < 0 || s.To > len(c.pix) || s.From > s.To {
			return false
		}
	}
	return true
}

// Load returns the latest snapshot including a private copy of the pixels
func (c *Cell) Load() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := c.state
	snap.Pix = slices.Clone(c.pix)
	return snap
}

// Summary returns the latest snapshot without pixels
func (c *Cell) Summary() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Version increases on every accepted write, letting pollers skip unchanged state
func (c *Cell) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func samePalette(a, b palette.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
