package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmitchellscott/qdither/internal/config"
	"github.com/rmitchellscott/qdither/internal/logging"
)

// Backend defines the interface for storage backends
type Backend interface {
	Put(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FilesystemBackend implements storage using local filesystem
type FilesystemBackend struct {
	dataDir string
}

// NewFilesystemBackend creates a new filesystem storage backend
func NewFilesystemBackend(dataDir string) *FilesystemBackend {
	return &FilesystemBackend{
		dataDir: dataDir,
	}
}

// ForPath returns a backend rooted at the directory of path and the key of path within it
func ForPath(path string) (*FilesystemBackend, string) {
	return NewFilesystemBackend(filepath.Dir(path)), filepath.Base(path)
}

// Root returns the directory keys are resolved against
func (f *FilesystemBackend) Root() string {
	return f.dataDir
}

func (f *FilesystemBackend) resolve(key string) (string, error) {
	fullPath := filepath.Join(f.dataDir, key)
	rel, err := filepath.Rel(f.dataDir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return fullPath, nil
}

// Put stores data in the filesystem. The file is written to a temporary name
// first and renamed into place, so readers never see a partial file.
func (f *FilesystemBackend) Put(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := f.resolve(key)
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	tmpPath := file.Name()

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file %s: %w", fullPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		logging.WarnWithComponent(logging.ComponentStorage, "Could not set file mode", "path", tmpPath, "error", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place at %s: %w", fullPath, err)
	}

	logging.DebugWithComponent(logging.ComponentStorage, "Stored file", "path", fullPath)
	return nil
}

// Get retrieves data from the filesystem
func (f *FilesystemBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := f.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}

	return file, nil
}

// Delete removes a file from the filesystem
func (f *FilesystemBackend) Delete(ctx context.Context, key string) error {
	fullPath, err := f.resolve(key)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	return nil
}

// DataDir returns the configured directory for application state
func DataDir() string {
	return config.Get("DATA_DIR", "./data")
}
