package dither

import (
	"fmt"

	ditherlib "github.com/makeworld-the-better-one/dither/v2"

	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

// DefaultFrameThreshold is the largest image, in pixels, that is published after every pixel.
// Larger images are published once per completed row.
const DefaultFrameThreshold = 1_000_000

// Frame is a view of the buffer handed to an Observer.
// Pix and Dirty alias ditherer state and are only valid for the duration of the call.
type Frame struct {
	Pix       []rgb.Color
	Width     int
	Height    int
	Palette   palette.Palette
	Processed int
	// Dirty lists the index ranges written since the previous frame.
	// nil means any pixel may have changed.
	Dirty []Span
}

// Span is the half-open index range [From, To)
type Span struct {
	From, To int
}

// dirtyTracker records written indices as one span per kernel row
type dirtyTracker struct {
	rows []Span
	out  []Span
}

func newDirtyTracker(taps []tap) *dirtyTracker {
	depth := 0
	for _, t := range taps {
		depth = max(depth, t.dy)
	}
	return &dirtyTracker{
		rows: make([]Span, depth+1),
		out:  make([]Span, 0, depth+1),
	}
}

func (d *dirtyTracker) mark(row, i int) {
	s := &d.rows[row]
	if s.From == s.To {
		s.From, s.To = i, i+1
		return
	}
	s.From = min(s.From, i)
	s.To = max(s.To, i+1)
}

// flush returns the spans marked since the last flush and clears them
func (d *dirtyTracker) flush() []Span {
	d.out = d.out[:0]
	for i, s := range d.rows {
		if s.From != s.To {
			d.out = append(d.out, s)
		}
		d.rows[i] = Span{}
	}
	return d.out
}

// Observer receives progress while a buffer is dithered.
// Implementations must copy what they keep and must not block.
type Observer interface {
	Publish(f Frame)
	Finish(f Frame)
}

// Stats describes a finished dithering pass
type Stats struct {
	Pixels     int
	Diffusions int
	Publishes  int
}

// tap is one forward neighbor receiving a share of the quantization error
type tap struct {
	dx, dy int
	weight float64
}

// Ditherer applies error diffusion with a fixed kernel
type Ditherer struct {
	taps []tap
	// FrameThreshold overrides DefaultFrameThreshold when positive
	FrameThreshold int
}

// NewFloydSteinberg returns a ditherer using the Floyd-Steinberg kernel:
// 7/16 right, 3/16 below-left, 5/16 below and 1/16 below-right.
func NewFloydSteinberg() *Ditherer {
	return &Ditherer{taps: tapsFromMatrix(ditherlib.FloydSteinberg)}
}

// tapsFromMatrix flattens a diffusion matrix into offsets relative to the current pixel,
// which is the right-most zero of the top row.
func tapsFromMatrix(m ditherlib.ErrorDiffusionMatrix) []tap {
	cur := len(m[0]) / 2
	for x, w := range m[0] {
		if w != 0 {
			cur = x - 1
			break
		}
	}

	var taps []tap
	for dy, row := range m {
		for x, w := range row {
			if w == 0 {
				continue
			}
			taps = append(taps, tap{dx: x - cur, dy: dy, weight: float64(w)})
		}
	}
	return taps
}

// Dither walks buf once in raster order, snapping every pixel to its nearest palette entry and
// pushing the quantization error onto the neighbors that have not been visited yet.
// The error is the saturating difference between the original and chosen colors.
// obs may be nil.
func (d *Ditherer) Dither(buf *Buffer, pal palette.Palette, obs Observer) (Stats, error) {
	if err := buf.Validate(); err != nil {
		return Stats{}, err
	}
	if len(pal) == 0 {
		return Stats{}, palette.ErrEmpty
	}

	threshold := d.FrameThreshold
	if threshold <= 0 {
		threshold = DefaultFrameThreshold
	}
	everyPixel := buf.Len() <= threshold

	stats := Stats{Pixels: buf.Len()}
	dirty := newDirtyTracker(d.taps)
	frame := func(processed int) Frame {
		return Frame{
			Pix:       buf.Pix,
			Width:     buf.Width,
			Height:    buf.Height,
			Palette:   pal,
			Processed: processed,
			Dirty:     dirty.flush(),
		}
	}

	for i, original := range buf.Pix {
		chosen := pal.Nearest(original)
		quantErr := original.SaturatingSub(chosen)
		buf.Pix[i] = chosen
		dirty.mark(0, i)

		if !quantErr.IsZero() {
			for _, t := range d.taps {
				n, ok := buf.Neighbor(i, t.dx, t.dy)
				if !ok {
					continue
				}
				buf.Pix[n] = buf.Pix[n].SaturatingAdd(quantErr.Scale(t.weight))
				dirty.mark(t.dy, n)
				stats.Diffusions++
			}
		}

		if obs != nil && (everyPixel || (i+1)%buf.Width == 0) {
			obs.Publish(frame(i + 1))
			stats.Publishes++
		}
	}

	if obs != nil {
		obs.Finish(frame(buf.Len()))
	}

	logging.DebugWithComponent(logging.ComponentDither, "Dithering finished",
		"width", buf.Width, "height", buf.Height, "palette_size", len(pal),
		"diffusions", stats.Diffusions, "publishes", stats.Publishes)
	return stats, nil
}

// Verify reports the first pixel that is not a palette entry
func Verify(buf *Buffer, pal palette.Palette) error {
	for i, c := range buf.Pix {
		if !pal.Contains(c) {
			x, y := buf.Coords(i)
			return fmt.Errorf("pixel (%d,%d) = %v is not in the palette", x, y, c)
		}
	}
	return nil
}
