package fsx

import (
	"context"
	"io"
)

// FileReader reads files from the backing storage
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSystem is the full storage abstraction used for uploads and
// generated artifacts. Implementations: fsxs3 (S3), fsxlocal (disk).
type FileSystem interface {
	FileReader

	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
	DeleteFile(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)

	// Join builds a storage path from segments using the backend's separator
	Join(parts ...string) string
}
