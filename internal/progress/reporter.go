package progress

import (
	"context"
	"time"

	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/pollers"
)

// Reporter logs the state of a Cell at a fixed cadence until the run is done.
// It never writes to the cell.
type Reporter struct {
	*pollers.BasePoller
	cell *Cell
	seen uint64
}

// NewReporter creates a reporter polling cell every interval
func NewReporter(cell *Cell, interval time.Duration) *Reporter {
	r := &Reporter{cell: cell}
	r.BasePoller = pollers.NewBasePoller(pollers.DefaultConfig("progress-reporter", interval), r.poll)
	return r
}

func (r *Reporter) poll(ctx context.Context) error {
	v := r.cell.Version()
	if v == r.seen {
		return nil
	}
	r.seen = v

	snap := r.cell.Summary()
	switch snap.Status {
	case InProgress:
		logging.InfoWithComponent(logging.ComponentProgress, "Dithering",
			"percent", int(snap.Percent()), "processed", snap.Processed, "total", snap.Total())
	case Done:
		logging.InfoWithComponent(logging.ComponentProgress, "Dithering complete",
			"width", snap.Width, "height", snap.Height, "palette_size", len(snap.Palette))
		return pollers.ErrStop
	}
	return nil
}
