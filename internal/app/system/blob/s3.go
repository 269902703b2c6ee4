package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const (
	uploadTicketTTL    = 15 * time.Minute
	defaultContentType = "application/octet-stream"
)

// ErrNoPublicURL is returned by NewS3 without a public URL prefix. Download
// URLs are stored on the file record and never re-resolved, so they cannot
// be presigned (S3 caps those at seven days).
var ErrNoPublicURL = errors.New("s3 backend requires a public download url")

// objectClient is the subset of *minio.Client the S3 backend uses.
type objectClient interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// S3Config configures the S3-compatible backend.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is the permanent download prefix (the bucket's public
	// endpoint or a CDN in front of it). Required.
	PublicURL string
}

// S3Store stores blobs in an S3-compatible bucket.
type S3Store struct {
	client    objectClient
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewS3 connects to the bucket described by cfg.
func NewS3(cfg S3Config, logger *zap.Logger) (*S3Store, error) {
	if strings.TrimSpace(cfg.PublicURL) == "" {
		return nil, ErrNoPublicURL
	}
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return newS3(cl, cfg, logger), nil
}

func newS3(cl objectClient, cfg S3Config, logger *zap.Logger) *S3Store {
	return &S3Store{
		client:    cl,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       logger,
	}
}

// UploadTicket returns a presigned PUT for a fresh key.
func (s *S3Store) UploadTicket(ctx context.Context) (Ticket, error) {
	key := NewKey()
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, uploadTicketTTL)
	if err != nil {
		return Ticket{}, fmt.Errorf("presign upload: %w", err)
	}
	return Ticket{UploadURL: u.String(), BlobKey: key}, nil
}

// DownloadURL returns the permanent public URL for key, or "" when the
// object does not exist.
func (s *S3Store) DownloadURL(ctx context.Context, key string) (string, error) {
	if !ValidKey(key) {
		return "", nil
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat blob: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// Put uploads r under key.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("put blob: %w", err)
	}
	return nil
}

// Delete removes key; S3 treats deleting a missing object as success.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	s.log.Debug("blob removed", zap.String("blob_key", key))
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
