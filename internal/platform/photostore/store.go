// Package photostore stores stage photos. It defines the Store interface,
// an in-memory implementation for development and tests, an S3-backed
// implementation, the upload/download HTTP handlers and a background reaper
// for photos no stage record ever claimed.
package photostore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound       = errors.New("photo not found")
	ErrTooLarge       = errors.New("photo exceeds maximum allowed size")
	ErrBadContentType = errors.New("content type is not allowed")
)

// MaxPhotoSize bounds a single upload (5 MB).
const MaxPhotoSize = 5 * 1024 * 1024

// AllowedContentTypes lists accepted photo MIME types.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Meta describes a stored photo.
type Meta struct {
	ID          string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the storage backend contract.
type Store interface {
	Save(ctx context.Context, meta Meta, content io.Reader) (*Meta, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *Meta, error)
	Stat(ctx context.Context, id string) (*Meta, error)
	Delete(ctx context.Context, id string) error
	// List returns the ids of all stored photos. Used by the reaper.
	List(ctx context.Context) ([]string, error)
}
