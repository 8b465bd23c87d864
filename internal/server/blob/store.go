// Package blob abstracts the object store holding uploaded file contents.
package blob

import (
	"context"
	"io"
	"time"
)

// Store is the blob-store collaborator: opaque byte storage addressed by
// path, with a private and a public bucket.
type Store interface {
	// Put writes the blob at path in the public or private bucket.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string, public bool) error
	// Delete removes the blob at path. Idempotent: deleting a missing path
	// is not an error.
	Delete(ctx context.Context, path string, public bool) error
	// SignedURL returns a time-limited download URL for a private blob.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	// PublicURL returns the long-lived URL of a blob in the public bucket.
	PublicURL(path string) string
}
