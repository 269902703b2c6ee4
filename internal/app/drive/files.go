package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	filestore "github.com/dalemusser/stratadrive/internal/app/store/files"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/filetypes"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// List views.
const (
	ViewAll     = "all"
	ViewActive  = "active"
	ViewStarred = "starred"
	ViewTrash   = "trash"
)

// UploadInput is what the client sends after PUTting the blob.
type UploadInput struct {
	ScopeID  string `json:"scope_id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	BlobKey  string `json:"blob_key"`
}

// ListQuery narrows ListFiles. The zero value lists every file in the scope.
type ListQuery struct {
	View        string
	ContentType string
	Uploader    string // owner user id (hex)
	Search      string
	Since       time.Time
}

// GenerateUploadTicket reserves a blob key for an authenticated caller.
func (s *Service) GenerateUploadTicket(ctx context.Context, principalID string) (blob.Ticket, error) {
	if principalID == "" {
		return blob.Ticket{}, authz.ErrUnauthenticated
	}
	t, err := s.blobs.UploadTicket(ctx)
	if err != nil {
		return blob.Ticket{}, storageErr("upload ticket", err)
	}
	return t, nil
}

// UploadCommit records an uploaded blob as a file in in.ScopeID.
// Input is validated before authorization so malformed requests never
// reach the store.
func (s *Service) UploadCommit(ctx context.Context, principalID string, in UploadInput) (models.File, error) {
	ct, ok := filetypes.FromMIME(in.MIMEType)
	if !ok {
		return models.File{}, fmt.Errorf("%w: unsupported file type %q", ErrValidation, in.MIMEType)
	}
	name, err := validName(in.Name)
	if err != nil {
		return models.File{}, err
	}
	if !blob.ValidKey(in.BlobKey) {
		return models.File{}, fmt.Errorf("%w: invalid blob key", ErrValidation)
	}

	u, err := s.authz.ResolveOrgAccess(ctx, principalID, in.ScopeID)
	if err != nil {
		return models.File{}, err
	}

	url, err := s.blobs.DownloadURL(ctx, in.BlobKey)
	if err != nil || url == "" {
		return models.File{}, storageErr("resolve download url", err)
	}

	f, err := s.files.Create(ctx, models.File{
		Name:             name,
		ContentType:      ct,
		BlobKey:          in.BlobKey,
		DownloadURL:      url,
		ScopeID:          in.ScopeID,
		OwnerPrincipalID: u.PrincipalID,
		OwnerUserID:      u.ID,
	})
	if errors.Is(err, filestore.ErrDuplicateBlobKey) {
		return models.File{}, fmt.Errorf("%w: blob is already committed", ErrValidation)
	}
	if err != nil {
		return models.File{}, fmt.Errorf("create file: %w", err)
	}

	s.audit.FileUploaded(ctx, principalID, &f)
	return f, nil
}

// ListFiles returns files in scopeID annotated with the caller's stars, in
// insertion order. Callers without access get an empty list.
func (s *Service) ListFiles(ctx context.Context, principalID, scopeID string, q ListQuery) ([]models.FileWithStar, error) {
	out := []models.FileWithStar{}

	flt, err := q.filter()
	if err != nil {
		return nil, err
	}

	u, err := s.authz.ResolveOrgAccess(ctx, principalID, scopeID)
	if err != nil {
		if IsQueryDegradable(err) {
			return out, nil
		}
		return nil, err
	}

	starredIDs, err := s.stars.StarredFileIDs(ctx, u.ID, scopeID)
	if err != nil {
		return nil, fmt.Errorf("load stars: %w", err)
	}
	starred := make(map[primitive.ObjectID]bool, len(starredIDs))
	for _, id := range starredIDs {
		starred[id] = true
	}
	if q.View == ViewStarred {
		flt.IDs = starredIDs
	}

	files, err := s.files.ListByScope(ctx, scopeID, flt)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	for _, f := range files {
		out = append(out, models.FileWithStar{File: f, IsStarred: starred[f.ID]})
	}
	return out, nil
}

func (q ListQuery) filter() (filestore.Filter, error) {
	var flt filestore.Filter
	no, yes := false, true

	switch strings.ToLower(q.View) {
	case "", ViewAll:
	case ViewActive, ViewStarred:
		flt.Trashed = &no
	case ViewTrash:
		flt.Trashed = &yes
	default:
		return flt, fmt.Errorf("%w: unknown view %q", ErrValidation, q.View)
	}

	if q.ContentType != "" {
		if !filetypes.IsValid(q.ContentType) {
			return flt, fmt.Errorf("%w: unknown type %q", ErrValidation, q.ContentType)
		}
		flt.ContentType = q.ContentType
	}
	if q.Uploader != "" {
		oid, err := primitive.ObjectIDFromHex(q.Uploader)
		if err != nil {
			return flt, fmt.Errorf("%w: invalid uploader id", ErrValidation)
		}
		flt.OwnerUserID = oid
	}
	flt.NameQuery = q.Search
	flt.CreatedSince = q.Since
	return flt, nil
}

// resolveMutation loads the file and applies scope access plus the mutation policy.
func (s *Service) resolveMutation(ctx context.Context, principalID, fileID string) (*models.User, *models.File, error) {
	u, f, err := s.authz.ResolveFileAccess(ctx, principalID, fileID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authz.AuthorizeMutation(u, f); err != nil {
		return nil, nil, err
	}
	return u, f, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return authz.ErrFileNotFound
	}
	return err
}

// RenameFile changes a file's name. Concurrent renames are last-write-wins.
func (s *Service) RenameFile(ctx context.Context, principalID, fileID, newName string) (models.File, error) {
	name, err := validName(newName)
	if err != nil {
		return models.File{}, err
	}
	_, f, err := s.resolveMutation(ctx, principalID, fileID)
	if err != nil {
		return models.File{}, err
	}
	if err := s.files.Rename(ctx, f.ID, name); err != nil {
		return models.File{}, notFound(err)
	}
	s.audit.FileRenamed(ctx, principalID, f, name)
	f.Name = name
	return *f, nil
}

// MoveToTrash marks a file trashed. Trashing twice is a no-op.
func (s *Service) MoveToTrash(ctx context.Context, principalID, fileID string) error {
	return s.setTrashed(ctx, principalID, fileID, true)
}

// RestoreFile clears the trash flag. Restoring an active file is a no-op.
func (s *Service) RestoreFile(ctx context.Context, principalID, fileID string) error {
	return s.setTrashed(ctx, principalID, fileID, false)
}

func (s *Service) setTrashed(ctx context.Context, principalID, fileID string, trashed bool) error {
	_, f, err := s.resolveMutation(ctx, principalID, fileID)
	if err != nil {
		return err
	}
	if err := s.files.SetTrashed(ctx, f.ID, trashed); err != nil {
		return notFound(err)
	}
	if trashed {
		s.audit.FileTrashed(ctx, principalID, f)
	} else {
		s.audit.FileRestored(ctx, principalID, f)
	}
	return nil
}

// DeleteForever removes the blob, then the record, then every user's stars.
// If the blob cannot be deleted the record is left in place.
func (s *Service) DeleteForever(ctx context.Context, principalID, fileID string) error {
	_, f, err := s.resolveMutation(ctx, principalID, fileID)
	if err != nil {
		return err
	}
	n, err := s.purge(ctx, *f)
	if err != nil {
		return err
	}
	s.audit.FileDeleted(ctx, principalID, f, n)
	return nil
}

// PurgeFile deletes f without any principal. Used by the trash sweeper only.
// The record is re-read first: a file restored (or already deleted) since the
// sweeper listed it is left alone and reported as not purged.
func (s *Service) PurgeFile(ctx context.Context, f models.File) (bool, error) {
	cur, err := s.files.GetByID(ctx, f.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload file: %w", err)
	}
	if !cur.Trashed {
		return false, nil
	}
	_, err = s.purge(ctx, cur)
	s.audit.FilePurged(ctx, &cur, err)
	return err == nil, err
}

// TrashedFiles lists files trashed at or before cutoff (zero = all trashed).
// Used by the trash sweeper only.
func (s *Service) TrashedFiles(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	return s.files.ListTrashed(ctx, cutoff)
}

func (s *Service) purge(ctx context.Context, f models.File) (int64, error) {
	if err := s.blobs.Delete(ctx, f.BlobKey); err != nil {
		return 0, storageErr("delete blob", err)
	}
	if _, err := s.files.Delete(ctx, f.ID); err != nil {
		return 0, fmt.Errorf("delete file record: %w", err)
	}
	n, err := s.stars.DeleteByFile(ctx, f.ID)
	if err != nil {
		s.log.Error("file deleted but its stars remain",
			zap.String("file_id", f.ID.Hex()), zap.Error(err))
		return 0, fmt.Errorf("delete stars: %w", err)
	}
	return n, nil
}

// ToggleStar flips the caller's star on a file and reports the new state.
func (s *Service) ToggleStar(ctx context.Context, principalID, fileID string) (bool, error) {
	u, f, err := s.authz.ResolveFileAccess(ctx, principalID, fileID)
	if err != nil {
		return false, err
	}
	starred, err := s.stars.Toggle(ctx, u.ID, *f)
	if err != nil {
		return false, fmt.Errorf("toggle star: %w", err)
	}
	return starred, nil
}
