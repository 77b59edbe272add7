package imageprocessing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"

	"github.com/klauspost/compress/zlib"
)

// maxPaletteEntries is the largest PLTE chunk PNG allows
const maxPaletteEntries = 256

// BitDepthForPalette returns the smallest PNG bit depth able to index n palette entries
func BitDepthForPalette(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	case n <= 16:
		return 4
	default:
		return 8
	}
}

// EncodePalettedPNG encodes a paletted image as an indexed-color PNG (color type 3).
// The bit depth is the smallest that can hold the palette.
func EncodePalettedPNG(paletted *image.Paletted) ([]byte, error) {
	if paletted == nil {
		return nil, fmt.Errorf("image is nil")
	}
	if len(paletted.Palette) == 0 || len(paletted.Palette) > maxPaletteEntries {
		return nil, fmt.Errorf("palette must have between 1 and %d entries, got %d", maxPaletteEntries, len(paletted.Palette))
	}

	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	bitDepth := BitDepthForPalette(len(paletted.Palette))

	var buf bytes.Buffer

	// PNG signature
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	writeChunk(&buf, "IHDR", func(data *bytes.Buffer) {
		binary.Write(data, binary.BigEndian, uint32(width))
		binary.Write(data, binary.BigEndian, uint32(height))
		data.WriteByte(uint8(bitDepth)) // Bit depth
		data.WriteByte(3)               // Color type: Indexed
		data.WriteByte(0)               // Compression method
		data.WriteByte(0)               // Filter method
		data.WriteByte(0)               // Interlace method
	})

	writeChunk(&buf, "PLTE", func(data *bytes.Buffer) {
		for _, c := range paletted.Palette {
			r, g, b, _ := c.RGBA()
			data.WriteByte(uint8(r >> 8))
			data.WriteByte(uint8(g >> 8))
			data.WriteByte(uint8(b >> 8))
		}
	})

	imageData, err := packIndexedImageData(paletted, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to pack image data: %w", err)
	}

	compressedData, err := zlibCompress(imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}

	writeChunk(&buf, "IDAT", func(data *bytes.Buffer) {
		data.Write(compressedData)
	})

	writeChunk(&buf, "IEND", func(data *bytes.Buffer) {})

	return buf.Bytes(), nil
}

// packIndexedImageData packs palette indices into scanlines, most significant bits first
func packIndexedImageData(paletted *image.Paletted, bitDepth int) ([]byte, error) {
	bounds := paletted.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	pixelsPerByte := 8 / bitDepth
	bytesPerRow := (width + pixelsPerByte - 1) / pixelsPerByte
	limit := 1 << bitDepth

	// Filter byte at the start of each row
	data := make([]byte, height*(bytesPerRow+1))

	for y := 0; y < height; y++ {
		rowStart := y * (bytesPerRow + 1)
		data[rowStart] = 0 // Filter type: None

		for x := 0; x < width; x++ {
			index := paletted.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y)
			if int(index) >= limit || int(index) >= len(paletted.Palette) {
				return nil, fmt.Errorf("palette index %d out of range at (%d, %d)", index, x, y)
			}

			byteIndex := rowStart + 1 + x/pixelsPerByte
			bitOffset := (pixelsPerByte - 1 - (x % pixelsPerByte)) * bitDepth
			data[byteIndex] |= index << bitOffset
		}
	}

	return data, nil
}

// writeChunk writes a PNG chunk with proper CRC
func writeChunk(buf *bytes.Buffer, chunkType string, dataWriter func(*bytes.Buffer)) {
	var chunkData bytes.Buffer
	dataWriter(&chunkData)
	data := chunkData.Bytes()

	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	binary.Write(buf, binary.BigEndian, crc.Sum32())
}

// zlibCompress compresses data using zlib at best compression
func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}
