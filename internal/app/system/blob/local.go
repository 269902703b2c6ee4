package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const ticketName = "blob-upload"

// ErrInvalidTicket is returned when an upload ticket fails verification or has expired.
var ErrInvalidTicket = errors.New("invalid or expired upload ticket")

// LocalConfig configures the on-disk backend.
type LocalConfig struct {
	Dir       string // root directory for blobs
	BaseURL   string // public base URL of this service, e.g. https://drive.example.com
	TicketKey string // HMAC key for upload tickets (32+ bytes)
}

// LocalStore keeps blobs on local disk and serves them through the app's
// /blobs routes. Upload tickets are signed with securecookie so the PUT
// endpoint needs no session.
type LocalStore struct {
	dir     string
	baseURL string
	codec   *securecookie.SecureCookie
	log     *zap.Logger
}

// NewLocal creates the blob directory if needed.
func NewLocal(cfg LocalConfig, logger *zap.Logger) (*LocalStore, error) {
	if cfg.TicketKey == "" {
		return nil, fmt.Errorf("local blob storage requires a ticket key")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	codec := securecookie.New([]byte(cfg.TicketKey), nil)
	codec.MaxAge(int(uploadTicketTTL.Seconds()))
	return &LocalStore{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		codec:   codec,
		log:     logger,
	}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// UploadTicket signs a fresh key into a PUT URL on this service.
func (s *LocalStore) UploadTicket(_ context.Context) (Ticket, error) {
	key := NewKey()
	tok, err := s.codec.Encode(ticketName, key)
	if err != nil {
		return Ticket{}, fmt.Errorf("sign upload ticket: %w", err)
	}
	return Ticket{UploadURL: s.baseURL + "/blobs/upload/" + tok, BlobKey: key}, nil
}

// RedeemTicket verifies an upload ticket and returns the key it was issued for.
func (s *LocalStore) RedeemTicket(ticket string) (string, error) {
	var key string
	if err := s.codec.Decode(ticketName, ticket, &key); err != nil {
		return "", ErrInvalidTicket
	}
	if !ValidKey(key) {
		return "", ErrInvalidTicket
	}
	return key, nil
}

// DownloadURL returns "" when nothing is stored under key.
func (s *LocalStore) DownloadURL(_ context.Context, key string) (string, error) {
	if !ValidKey(key) {
		return "", nil
	}
	if _, err := os.Stat(s.path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat blob: %w", err)
	}
	return s.baseURL + "/blobs/" + key, nil
}

// Put writes r to a temp file and renames it into place.
func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

// Open returns a reader for key; the caller closes it.
func (s *LocalStore) Open(key string) (*os.File, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	return os.Open(s.path(key))
}

// Delete removes key. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	s.log.Debug("blob removed", zap.String("blob_key", key))
	return nil
}
