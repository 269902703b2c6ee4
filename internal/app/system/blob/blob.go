// Package blob is the boundary to binary file storage.
//
// The drive never streams uploads through its own API: callers ask for an
// upload ticket, PUT the bytes to the returned URL out of band, and then
// commit the blob key. Download URLs are resolved once at commit time.
package blob

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that were not issued by NewKey.
var ErrInvalidKey = errors.New("invalid blob key")

// Ticket is a one-shot upload destination.
type Ticket struct {
	UploadURL string `json:"upload_url"`
	BlobKey   string `json:"blob_key"`
}

// Store is implemented by every blob backend.
type Store interface {
	// UploadTicket reserves a new key and returns a URL the client can PUT to.
	UploadTicket(ctx context.Context) (Ticket, error)
	// DownloadURL resolves key to a URL. An empty string with a nil error
	// means the blob does not exist.
	DownloadURL(ctx context.Context, key string) (string, error)
	// Put stores r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh opaque blob key.
func NewKey() string {
	return uuid.NewString()
}

// ValidKey reports whether key has the shape produced by NewKey.
func ValidKey(key string) bool {
	_, err := uuid.Parse(key)
	return err == nil && len(key) == 36
}
