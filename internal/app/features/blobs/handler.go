// internal/app/features/blobs/handler.go
package blobs

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/limits"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the local blob backend: ticketed uploads and downloads.
// It is only mounted when storage_type is "local".
type Handler struct {
	Store          *blob.LocalStore
	MaxUploadBytes int64
	Log            *zap.Logger
}

// NewHandler constructs a blobs Handler.
func NewHandler(store *blob.LocalStore, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = limits.DefaultMaxUpload
	}
	return &Handler{
		Store:          store,
		MaxUploadBytes: maxUploadBytes,
		Log:            logger,
	}
}

// ServeUpload handles PUT /blobs/upload/{ticket}. The body is the raw file.
//
//	{ "blob_key": "…" }
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	key, err := h.Store.RedeemTicket(chi.URLParam(r, "ticket"))
	if err != nil {
		apierr.WriteJSON(w, http.StatusForbidden, apierr.Body{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	body := http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := h.Store.Put(ctx, key, body, r.ContentLength, r.Header.Get("Content-Type")); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apierr.WriteJSON(w, http.StatusRequestEntityTooLarge, apierr.Body{Error: "file too large"})
			return
		}
		h.Log.Error("blob upload failed", zap.String("blob_key", key), zap.Error(err))
		apierr.WriteJSON(w, http.StatusInternalServerError, apierr.Body{Error: "upload failed"})
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]string{"blob_key": key})
}

// ServeDownload handles GET /blobs/{key}.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	f, err := h.Store.Open(key)
	if err != nil {
		if errors.Is(err, blob.ErrInvalidKey) || errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("blob open failed", zap.String("blob_key", key), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, key, st.ModTime(), f)
}
