package imageprocessing

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// ResizeToFit scales an image down so neither side exceeds maxDimension, preserving aspect ratio.
// Images that already fit, and a maxDimension <= 0, return the input unchanged.
func ResizeToFit(img image.Image, maxDimension int) image.Image {
	if img == nil || maxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth <= maxDimension && srcHeight <= maxDimension {
		return img
	}

	newWidth, newHeight := GetScaledDimensions(srcWidth, srcHeight, maxDimension, maxDimension)

	// Use BiLinear interpolation for good quality/speed balance
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)

	return resized
}

// GetScaledDimensions calculates the scaled dimensions that fit within the target while preserving aspect ratio.
// Neither dimension is ever scaled below one pixel.
func GetScaledDimensions(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := max(int(float64(srcWidth)*scale), 1)
	newHeight := max(int(float64(srcHeight)*scale), 1)

	return newWidth, newHeight
}
