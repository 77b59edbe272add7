package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/palette"
)

// Format is an output encoding
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// JPEGQuality is used for lossy output
const JPEGQuality = 95

// FormatForPath picks the output format from the file extension, defaulting to PNG
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".bmp":
		return FormatBMP
	default:
		return FormatPNG
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Encode serializes a dithered buffer in the given format.
// PNG output is indexed when the palette fits in a PLTE chunk.
func Encode(buf *dither.Buffer, pal palette.Palette, format Format) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	switch format {
	case FormatPNG:
		if len(pal) > 0 && len(pal) <= maxPaletteEntries {
			return EncodePalettedPNG(ToPaletted(buf, pal))
		}
		var out bytes.Buffer
		if err := png.Encode(&out, FromBuffer(buf)); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		return out.Bytes(), nil
	case FormatJPEG:
		return encodeWith(imgio.JPEGEncoder(JPEGQuality), FromBuffer(buf))
	case FormatBMP:
		return encodeWith(imgio.BMPEncoder(), FromBuffer(buf))
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

func encodeWith(encoder imgio.Encoder, img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := encoder(&out, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), nil
}
