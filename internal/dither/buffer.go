package dither

import (
	"errors"
	"fmt"

	"github.com/rmitchellscott/qdither/internal/rgb"
)

// ErrInvalidBuffer is returned for buffers whose pixel count does not match their dimensions
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Buffer is a width x height grid of colors stored in row-major order.
// Index i addresses (i % Width, i / Width).
type Buffer struct {
	Width  int
	Height int
	Pix    []rgb.Color
}

// NewBuffer allocates a black buffer of the given size
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]rgb.Color, width*height),
	}
}

// Validate checks the dimensions against the pixel slice
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width < 1 || b.Height < 1 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidBuffer, len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// Len returns the number of pixels
func (b *Buffer) Len() int {
	return len(b.Pix)
}

// Index converts grid coordinates to a flat index
func (b *Buffer) Index(x, y int) int {
	return y*b.Width + x
}

// Coords converts a flat index to grid coordinates
func (b *Buffer) Coords(i int) (x, y int) {
	return i % b.Width, i / b.Width
}

// At returns the pixel at (x, y)
func (b *Buffer) At(x, y int) rgb.Color {
	return b.Pix[b.Index(x, y)]
}

// Set writes the pixel at (x, y)
func (b *Buffer) Set(x, y int, c rgb.Color) {
	b.Pix[b.Index(x, y)] = c
}

// Neighbor returns the index of the pixel dx columns and dy rows away from i.
// ok is false when that pixel lies outside the grid; offsets never wrap into another row.
func (b *Buffer) Neighbor(i, dx, dy int) (int, bool) {
	x, y := b.Coords(i)
	x += dx
	y += dy
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return 0, false
	}
	return b.Index(x, y), true
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	pix := make([]rgb.Color, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}
