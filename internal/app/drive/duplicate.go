package drive

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/filetypes"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.uber.org/zap"
)

// DuplicateFileTo copies a file's bytes into a new blob and records it in
// targetScopeID. The caller needs access to both the source file and the
// target scope. The record is only created once the new blob resolves; if
// the insert fails the new blob is removed.
func (s *Service) DuplicateFileTo(ctx context.Context, principalID, fileID, targetScopeID string) (models.File, error) {
	u, src, err := s.authz.ResolveFileAccess(ctx, principalID, fileID)
	if err != nil {
		return models.File{}, err
	}
	if _, err := s.authz.ResolveOrgAccess(ctx, principalID, targetScopeID); err != nil {
		return models.File{}, err
	}

	key, url, err := s.copyBlob(ctx, src)
	if err != nil {
		return models.File{}, err
	}

	dst, err := s.files.Create(ctx, models.File{
		Name:             src.Name,
		ContentType:      src.ContentType,
		BlobKey:          key,
		DownloadURL:      url,
		ScopeID:          targetScopeID,
		OwnerPrincipalID: u.PrincipalID,
		OwnerUserID:      u.ID,
	})
	if err != nil {
		s.discardBlob(ctx, key)
		return models.File{}, fmt.Errorf("create file: %w", err)
	}

	s.audit.FileDuplicated(ctx, principalID, src, &dst)
	return dst, nil
}

// copyBlob streams src's bytes into a fresh key and resolves its URL.
func (s *Service) copyBlob(ctx context.Context, src *models.File) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.DownloadURL, nil)
	if err != nil {
		return "", "", storageErr("build fetch request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", storageErr("fetch source", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", storageErr(fmt.Sprintf("fetch source: status %d", resp.StatusCode), nil)
	}

	contentType := filetypes.MIMEFor(src.ContentType)
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		if ct, ok := filetypes.FromMIME(mt); ok && ct == src.ContentType {
			contentType = mt
		}
	}

	key := blob.NewKey()
	if err := s.blobs.Put(ctx, key, resp.Body, resp.ContentLength, contentType); err != nil {
		return "", "", storageErr("store copy", err)
	}

	url, err := s.blobs.DownloadURL(ctx, key)
	if err != nil || url == "" {
		s.discardBlob(ctx, key)
		return "", "", storageErr("resolve copy url", err)
	}
	return key, url, nil
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn("failed to remove orphaned blob", zap.String("blob_key", key), zap.Error(err))
	}
}
