package rgb

import (
	"fmt"
	"image/color"
	"math"
)

// Channel weights used by Distance. They approximate the luma contribution of each channel.
const (
	WeightRed   = 0.3
	WeightGreen = 0.59
	WeightBlue  = 0.11
)

// MaxDistance is the distance between black and white under the channel weights.
// Searches should start from math.Inf(1) rather than this value.
var MaxDistance = Distance(Color{}, Color{R: 255, G: 255, B: 255})

// Color is an opaque 8-bit RGB color
type Color struct {
	R, G, B uint8
}

// White is the color empty k-means clusters are seeded with
var White = Color{R: 255, G: 255, B: 255}

// FromColor converts any color.Color to an RGB triple, dropping alpha
func FromColor(c color.Color) Color {
	if rc, ok := c.(Color); ok {
		return rc
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// RGBA implements color.Color. The color is always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex returns the color formatted as RRGGBB
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer
func (c Color) String() string {
	return "#" + c.Hex()
}

// SaturatingAdd adds two colors channel by channel, clamping at 255
func (c Color) SaturatingAdd(o Color) Color {
	return Color{
		R: addClamp(c.R, o.R),
		G: addClamp(c.G, o.G),
		B: addClamp(c.B, o.B),
	}
}

// SaturatingSub subtracts o from c channel by channel, clamping at 0
func (c Color) SaturatingSub(o Color) Color {
	return Color{
		R: subClamp(c.R, o.R),
		G: subClamp(c.G, o.G),
		B: subClamp(c.B, o.B),
	}
}

// Scale multiplies every channel by factor and rounds to the nearest integer.
// Results are clamped to [0,255].
func (c Color) Scale(factor float64) Color {
	return Color{
		R: scaleClamp(c.R, factor),
		G: scaleClamp(c.G, factor),
		B: scaleClamp(c.B, factor),
	}
}

// IsZero reports whether every channel is 0
func (c Color) IsZero() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Distance returns the weighted Euclidean distance between two colors
func Distance(a, b Color) float64 {
	dr := (float64(a.R) - float64(b.R)) * WeightRed
	dg := (float64(a.G) - float64(b.G)) * WeightGreen
	db := (float64(a.B) - float64(b.B)) * WeightBlue
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func addClamp(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(s)
}

func subClamp(a, b uint8) uint8 {
	if b >= a {
		return 0
	}
	return a - b
}

func scaleClamp(v uint8, factor float64) uint8 {
	s := math.Round(float64(v) * factor)
	switch {
	case s <= 0:
		return 0
	case s >= math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(s)
}
