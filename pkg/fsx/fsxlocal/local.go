package fsxlocal

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalFileSystem implements fsx.FileSystem on the local disk.
// Used in development instead of S3.
type LocalFileSystem struct {
	root string
}

// NewLocalFileSystem creates a file system rooted at dir
func NewLocalFileSystem(root string) *LocalFileSystem {
	return &LocalFileSystem{root: root}
}

func (f *LocalFileSystem) abs(path string) string {
	return filepath.Join(f.root, filepath.FromSlash(path))
}

func (f *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(f.abs(path))
}

func (f *LocalFileSystem) WriteFile(ctx context.Context, path string, data []byte) error {
	full := f.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (f *LocalFileSystem) WriteFileStream(ctx context.Context, path string, r io.Reader) error {
	full := f.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	out, err := os.Create(full)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func (f *LocalFileSystem) DeleteFile(ctx context.Context, path string) error {
	return os.Remove(f.abs(path))
}

func (f *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(f.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *LocalFileSystem) Join(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}
