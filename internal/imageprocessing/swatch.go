package imageprocessing

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

// SwatchCellSize is the edge length of one palette entry in a swatch
const SwatchCellSize = 64

// labelMinCellSize is the smallest cell that fits a hex label in the default face
const labelMinCellSize = 56

// swatchColumns caps the swatch width before wrapping to a new row
const swatchColumns = 16

// RenderSwatch draws the palette as a grid of square cells, in palette order
func RenderSwatch(pal palette.Palette, cellSize int) image.Image {
	if cellSize <= 0 {
		cellSize = SwatchCellSize
	}
	if len(pal) == 0 {
		return image.NewRGBA(image.Rect(0, 0, cellSize, cellSize))
	}

	cols := min(len(pal), swatchColumns)
	rows := (len(pal) + cols - 1) / cols

	dc := gg.NewContext(cols*cellSize, rows*cellSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, c := range pal {
		x := float64((i % cols) * cellSize)
		y := float64((i / cols) * cellSize)
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(x, y, float64(cellSize), float64(cellSize))
		dc.Fill()

		if cellSize >= labelMinCellSize {
			drawLabel(dc, c, x, y, float64(cellSize))
		}
	}

	return dc.Image()
}

// drawLabel writes the hex value along the bottom of a cell in black or white,
// whichever is further from the cell color
func drawLabel(dc *gg.Context, c rgb.Color, x, y, size float64) {
	if rgb.Distance(c, rgb.Color{}) > rgb.Distance(c, rgb.White) {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetRGB(1, 1, 1)
	}
	dc.DrawStringAnchored(c.String(), x+size/2, y+size-8, 0.5, 0)
}

// EncodeSwatchPNG renders the palette swatch as PNG bytes
func EncodeSwatchPNG(pal palette.Palette) ([]byte, error) {
	dc := gg.NewContextForImage(RenderSwatch(pal, SwatchCellSize))
	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("failed to encode palette swatch: %w", err)
	}
	return out.Bytes(), nil
}
