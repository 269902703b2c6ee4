// Package drive implements the file lifecycle: upload commit, listing,
// rename, trash/restore, delete-forever, stars and duplication.
//
// Every operation resolves access through authz before it writes. Queries
// turn "not signed in" and "no access" into empty results; mutations return
// the error.
package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	filestore "github.com/dalemusser/stratadrive/internal/app/store/files"
	"github.com/dalemusser/stratadrive/internal/app/system/auditlog"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxNameLength caps file names, in characters.
const MaxNameLength = 200

var (
	// ErrValidation marks malformed input; nothing was written.
	ErrValidation = errors.New("invalid input")
	// ErrStorage marks a blob store failure or an unresolvable blob.
	ErrStorage = errors.New("something went wrong, please try again later")
)

// FileRepo is implemented by filestore.Store.
type FileRepo interface {
	Create(ctx context.Context, f models.File) (models.File, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.File, error)
	ListByScope(ctx context.Context, scopeID string, f filestore.Filter) ([]models.File, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	SetTrashed(ctx context.Context, id primitive.ObjectID, trashed bool) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListTrashed(ctx context.Context, before time.Time) ([]models.File, error)
}

// StarRepo is implemented by starstore.Store.
type StarRepo interface {
	Toggle(ctx context.Context, userID primitive.ObjectID, f models.File) (bool, error)
	StarredFileIDs(ctx context.Context, userID primitive.ObjectID, scopeID string) ([]primitive.ObjectID, error)
	DeleteByFile(ctx context.Context, fileID primitive.ObjectID) (int64, error)
}

// Service is the drive's mutation and query surface.
type Service struct {
	authz  *authz.Service
	files  FileRepo
	stars  StarRepo
	blobs  blob.Store
	audit  *auditlog.Logger
	client *http.Client
	log    *zap.Logger
}

// Deps groups the Service collaborators.
type Deps struct {
	Authz *authz.Service
	Files FileRepo
	Stars StarRepo
	Blobs blob.Store
	Audit *auditlog.Logger // optional
	// HTTPClient fetches source bytes when duplicating. Defaults to a client
	// with a one minute timeout.
	HTTPClient *http.Client
	Log        *zap.Logger
}

// New builds a Service.
func New(d Deps) *Service {
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		authz:  d.Authz,
		files:  d.Files,
		stars:  d.Stars,
		blobs:  d.Blobs,
		audit:  d.Audit,
		client: client,
		log:    log,
	}
}

// validName sanitizes a user-supplied file name.
func validName(name string) (string, error) {
	clean := htmlsanitize.PlainText(name)
	if clean == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(clean) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	}
	return clean, nil
}

func storageErr(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrStorage, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// IsQueryDegradable reports whether a query should answer with an empty
// result instead of err.
func IsQueryDegradable(err error) bool {
	return errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrDenied)
}
