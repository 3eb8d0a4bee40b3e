package object

import (
	"context"
	"io"
)

// FileMeta describes a stored file as reported by the storage backend.
type FileMeta struct {
	OriginalName string
	MimeType     string
	StorageKey   string
	SizeBytes    int64
}

// UploadOptions carries the storage folder and image handling settings.
// Image resizing itself is the backend's concern; the dimensions are
// passed through untouched.
type UploadOptions struct {
	Folder         string
	OptimizeImages bool
	ImageWidth     int
	ImageHeight    int
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Upload(ctx context.Context, opts UploadOptions, ownerKey string, fileName string, r io.Reader) (FileMeta, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
