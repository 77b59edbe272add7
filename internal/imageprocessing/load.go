package imageprocessing

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DecodeImage decodes any registered image format from r
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// LoadImage opens and decodes the image at path
func LoadImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, format, err := DecodeImage(file)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < 1 || bounds.Dy() < 1 {
		return nil, "", fmt.Errorf("%s: image has no pixels", path)
	}

	return img, format, nil
}
