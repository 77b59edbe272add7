package imageprocessing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rmitchellscott/qdither/internal/dither"
	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/storage"
)

// SaveOutput writes already encoded image data under key
func SaveOutput(ctx context.Context, backend storage.Backend, key string, data []byte) error {
	if err := backend.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// WriteResult encodes a dithered buffer in the format implied by path and stores it there.
// It returns the number of bytes written.
func WriteResult(ctx context.Context, path string, buf *dither.Buffer, pal palette.Palette) (int, error) {
	format := FormatForPath(path)
	data, err := Encode(buf, pal, format)
	if err != nil {
		return 0, err
	}

	backend, key := storage.ForPath(path)
	if err := SaveOutput(ctx, backend, key, data); err != nil {
		return 0, err
	}

	logging.InfoWithComponent(logging.ComponentStorage, "Saved output",
		"path", path, "format", format, "bytes", len(data))
	return len(data), nil
}
