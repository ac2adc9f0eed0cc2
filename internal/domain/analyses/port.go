package analyses

import (
	"context"
	"io"
)

// UploadMeta is what the client declared about a file part.
type UploadMeta struct {
	Field        string
	OriginalName string
	ContentType  string
}

// FileStore port (interface untuk penyimpanan file upload)
type FileStore interface {
	// Save streams r into a freshly named file. Reading more than limit
	// bytes fails with ErrFileTooLarge and leaves nothing on disk.
	Save(ctx context.Context, meta UploadMeta, r io.Reader, limit int64) (StoredFile, error)
	Remove(ctx context.Context, name string) error
	Dir() string
}

// Mirror port, copies a stored file to object storage.
type Mirror interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Repository port for listing analyses.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
}
