package imageprocessing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

func TestBitDepthForPalette(t *testing.T) {
	tests := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 4, 16: 4, 17: 8, 255: 8, 256: 8}
	for n, want := range tests {
		if got := BitDepthForPalette(n); got != want {
			t.Errorf("BitDepthForPalette(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestEncodePalettedPNGRoundTrip(t *testing.T) {
	pal := palette.Palette{{R: 10, G: 20, B: 30}, {R: 200, G: 100, B: 0}, {R: 255, G: 255, B: 255}}
	buf := dither.NewBuffer(5, 3)
	for i := range buf.Pix {
		buf.Pix[i] = pal[i%len(pal)]
	}

	data, err := Encode(buf, pal, FormatPNG)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	paletted, ok := img.(*image.Paletted)
	if !ok {
		t.Fatalf("decoded %T, want *image.Paletted", img)
	}
	if len(paletted.Palette) != len(pal) {
		t.Errorf("decoded palette has %d entries, want %d", len(paletted.Palette), len(pal))
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			want := buf.At(x, y)
			if got := rgb.FromColor(img.At(x, y)); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestEncodeLargePaletteFallsBackToRGBA(t *testing.T) {
	pal := make(palette.Palette, 300)
	for i := range pal {
		pal[i] = rgb.Color{R: uint8(i), G: uint8(i / 2), B: 7}
	}
	buf := dither.NewBuffer(2, 1)
	buf.Pix[0], buf.Pix[1] = pal[0], pal[299]

	data, err := Encode(buf, pal, FormatPNG)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got := rgb.FromColor(img.At(1, 0)); got != pal[299] {
		t.Errorf("pixel = %v, want %v", got, pal[299])
	}
}

func TestEncodeOtherFormats(t *testing.T) {
	buf := dither.NewBuffer(4, 4)
	for _, format := range []Format{FormatJPEG, FormatBMP} {
		data, err := Encode(buf, palette.Default(), format)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", format, err)
		}
		img, decoded, err := DecodeImage(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("DecodeImage(%s) error = %v", format, err)
		}
		if decoded != string(format) {
			t.Errorf("decoded format = %q, want %q", decoded, format)
		}
		if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
			t.Errorf("%s bounds = %v", format, img.Bounds())
		}
	}

	if _, err := Encode(buf, palette.Default(), Format("gif")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"out.png":     FormatPNG,
		"out.JPG":     FormatJPEG,
		"out.jpeg":    FormatJPEG,
		"out.bmp":     FormatBMP,
		"./dither":    FormatPNG,
		"a/b.unknown": FormatPNG,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestBufferConversions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(2, 1, color.NRGBA{R: 250, G: 128, B: 9, A: 255})

	buf := ToBuffer(src)
	if buf.Width != 3 || buf.Height != 2 {
		t.Fatalf("buffer is %dx%d", buf.Width, buf.Height)
	}
	if got := buf.At(0, 0); got != (rgb.Color{R: 1, G: 2, B: 3}) {
		t.Errorf("At(0,0) = %v", got)
	}
	if got := buf.At(2, 1); got != (rgb.Color{R: 250, G: 128, B: 9}) {
		t.Errorf("At(2,1) = %v", got)
	}

	back := ToBuffer(FromBuffer(buf))
	for i := range buf.Pix {
		if back.Pix[i] != buf.Pix[i] {
			t.Errorf("pixel %d = %v, want %v", i, back.Pix[i], buf.Pix[i])
		}
	}
}

func TestToBufferOffsetBounds(t *testing.T) {
	src := image.NewGray(image.Rect(5, 5, 7, 6))
	src.SetGray(6, 5, color.Gray{Y: 77})
	buf := ToBuffer(src)
	if got := buf.At(1, 0); got != (rgb.Color{R: 77, G: 77, B: 77}) {
		t.Errorf("At(1,0) = %v", got)
	}
}

func TestResizeToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))

	if got := ResizeToFit(src, 0); got != image.Image(src) {
		t.Error("maxDimension 0 should return the input")
	}
	if got := ResizeToFit(src, 500); got != image.Image(src) {
		t.Error("image that fits should be returned unchanged")
	}

	resized := ResizeToFit(src, 200)
	if b := resized.Bounds(); b.Dx() != 200 || b.Dy() != 50 {
		t.Errorf("resized bounds = %v, want 200x50", b)
	}

	thin := ResizeToFit(image.NewRGBA(image.Rect(0, 0, 1000, 1)), 10)
	if b := thin.Bounds(); b.Dx() != 10 || b.Dy() != 1 {
		t.Errorf("thin bounds = %v, want 10x1", b)
	}
}

func TestRenderSwatch(t *testing.T) {
	pal := palette.Palette{{R: 255}, {G: 255}, {B: 255}}
	img := RenderSwatch(pal, 4)
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 4 {
		t.Fatalf("swatch bounds = %v, want 12x4", b)
	}
	for i, c := range pal {
		if got := rgb.FromColor(img.At(i*4+2, 2)); got != c {
			t.Errorf("cell %d = %v, want %v", i, got, c)
		}
	}

	data, err := EncodeSwatchPNG(pal)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("swatch is not a valid PNG: %v", err)
	}
}
