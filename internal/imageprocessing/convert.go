package imageprocessing

import (
	"image"
	"image/color"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

// ToBuffer flattens an image into a row-major pixel buffer, discarding alpha
func ToBuffer(img image.Image) *dither.Buffer {
	bounds := img.Bounds()
	buf := dither.NewBuffer(bounds.Dx(), bounds.Dy())

	// Fast path for the common decoded formats
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < buf.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+buf.Width*4]
			for x := 0; x < buf.Width; x++ {
				p := row[x*4 : x*4+4]
				buf.Pix[buf.Index(x, y)] = unpremultiply(p[0], p[1], p[2], p[3])
			}
		}
		return buf
	case *image.NRGBA:
		for y := 0; y < buf.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+buf.Width*4]
			for x := 0; x < buf.Width; x++ {
				p := row[x*4 : x*4+4]
				buf.Pix[buf.Index(x, y)] = rgb.Color{R: p[0], G: p[1], B: p[2]}
			}
		}
		return buf
	}

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			buf.Set(x, y, rgb.FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return buf
}

// FromBuffer builds an opaque RGBA image from a pixel buffer
func FromBuffer(buf *dither.Buffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for i, c := range buf.Pix {
		img.Pix[i*4] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// ToPaletted builds a paletted image from a dithered buffer.
// Every pixel must be an entry of pal; unknown colors fall back to their nearest entry.
func ToPaletted(buf *dither.Buffer, pal palette.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, buf.Width, buf.Height), pal.ColorPalette())

	index := make(map[rgb.Color]uint8, len(pal))
	for i := len(pal) - 1; i >= 0; i-- {
		index[pal[i]] = uint8(i)
	}

	for i, c := range buf.Pix {
		idx, ok := index[c]
		if !ok {
			idx = uint8(pal.NearestIndex(c))
		}
		img.Pix[i] = idx
	}
	return img
}

// unpremultiply converts premultiplied RGBA bytes to straight RGB
func unpremultiply(r, g, b, a uint8) rgb.Color {
	if a == 0xff {
		return rgb.Color{R: r, G: g, B: b}
	}
	return rgb.FromColor(color.RGBA{R: r, G: g, B: b, A: a})
}
