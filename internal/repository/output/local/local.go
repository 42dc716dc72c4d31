package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"image-labeler/internal/repository/output"
)

// FileRepository writes outputs to the local filesystem. An empty directory
// resolves to the configured root and relative directories are placed under it.
type FileRepository struct {
	root string
}

func NewFileRepository(root string) *FileRepository {
	return &FileRepository{root: root}
}

func (r *FileRepository) resolve(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	switch {
	case dir == "":
		dir = r.root
	case filepath.IsAbs(dir):
		return filepath.Clean(dir), nil
	case r.root != "":
		dir = filepath.Join(r.root, dir)
	}
	if dir == "" {
		return "", output.ErrInvalidLocation
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", output.ErrInvalidLocation, err)
	}
	return abs, nil
}

// EnsureLocation creates dir if needed and checks that it accepts new files.
func (r *FileRepository) EnsureLocation(ctx context.Context, dir string) error {
	abs, err := r.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("%w: %v", output.ErrInvalidLocation, err)
	}

	tmp, err := os.CreateTemp(abs, ".write-check-*")
	if err != nil {
		return fmt.Errorf("%w: %v", output.ErrInvalidLocation, err)
	}
	name := tmp.Name()
	tmp.Close()
	return os.Remove(name)
}

func (r *FileRepository) Save(ctx context.Context, dir, name string, data io.Reader, size int64, contentType string) (string, error) {
	abs, err := r.resolve(dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(abs, name)

	f, err := os.Create(full)
	if err != nil {
		return full, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return full, fmt.Errorf("%w: write %s: %v", output.ErrStorageError, full, err)
	}
	if err := f.Close(); err != nil {
		return full, fmt.Errorf("%w: close %s: %v", output.ErrStorageError, full, err)
	}

	return full, nil
}

func (r *FileRepository) Open(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	abs, err := r.resolve(dir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(abs, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, output.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}
	return f, nil
}
