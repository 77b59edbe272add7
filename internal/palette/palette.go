package palette

import (
	"errors"
	"image/color"
	"math"

	"github.com/rmitchellscott/qdither/internal/rgb"
)

// ErrEmpty is returned when an operation needs at least one palette entry
var ErrEmpty = errors.New("palette is empty")

// Palette is an ordered list of colors an image is reduced to.
// Duplicates are allowed and kept in place.
type Palette []rgb.Color

// Default returns the two-color fallback palette used when a palette file has no valid colors
func Default() Palette {
	return Palette{
		{R: 3, G: 3, B: 3},
		{R: 255, G: 255, B: 255},
	}
}

// NearestIndex returns the index of the entry closest to c.
// Ties resolve to the lowest index. It panics on an empty palette.
func (p Palette) NearestIndex(c rgb.Color) int {
	if len(p) == 0 {
		panic(ErrEmpty)
	}

	best := 0
	bestDistance := math.Inf(1)
	for i, entry := range p {
		if d := rgb.Distance(c, entry); d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	return best
}

// Nearest returns the entry closest to c
func (p Palette) Nearest(c rgb.Color) rgb.Color {
	return p[p.NearestIndex(c)]
}

// Contains reports whether c is an entry of the palette
func (p Palette) Contains(c rgb.Color) bool {
	for _, entry := range p {
		if entry == c {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with p
func (p Palette) Clone() Palette {
	if p == nil {
		return nil
	}
	out := make(Palette, len(p))
	copy(out, p)
	return out
}

// Hex returns every entry formatted as RRGGBB
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, entry := range p {
		out[i] = entry.Hex()
	}
	return out
}

// ColorPalette converts the palette for use with image.Paletted
func (p Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, entry := range p {
		out[i] = entry
	}
	return out
}
