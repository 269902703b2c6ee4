package memstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
)

// Blobs is an in-memory blob.Store. It also serves GET /{key} so download
// URLs it hands out can be fetched through an httptest.Server.
type Blobs struct {
	mu      sync.Mutex
	objects map[string][]byte

	// BaseURL prefixes download URLs (set to an httptest.Server URL).
	BaseURL string
	// FailDelete, FailPut and NoURL inject storage failures.
	FailDelete bool
	FailPut    bool
	NoURL      bool
}

func NewBlobs() *Blobs {
	return &Blobs{objects: map[string][]byte{}, BaseURL: "http://blobs.test"}
}

var _ blob.Store = (*Blobs)(nil)

func (b *Blobs) UploadTicket(_ context.Context) (blob.Ticket, error) {
	key := blob.NewKey()
	return blob.Ticket{UploadURL: b.BaseURL + "/upload/" + key, BlobKey: key}, nil
}

func (b *Blobs) DownloadURL(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NoURL {
		return "", nil
	}
	if _, ok := b.objects[key]; !ok {
		return "", nil
	}
	return b.BaseURL + "/" + key, nil
}

func (b *Blobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if b.FailPut {
		return ErrInjected
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailDelete {
		return ErrInjected
	}
	delete(b.objects, key)
	return nil
}

// Seed stores data under a fresh key and returns it, as if a client had
// completed an upload.
func (b *Blobs) Seed(data string) string {
	key := blob.NewKey()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = []byte(data)
	return key
}

// Has reports whether key is stored.
func (b *Blobs) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// Len returns the number of stored blobs.
func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *Blobs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	b.mu.Lock()
	data, ok := b.objects[key]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = io.Copy(w, bytes.NewReader(data))
}
