// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratadrive/internal/app/directory"
	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves profile lookups.
type Handler struct {
	Directory *directory.Service
	Log       *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(dir *directory.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Directory: dir,
		Log:       logger,
	}
}

// ServeProfile handles GET /api/users/{userID}/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Directory.GetUserProfile(ctx, auth.PrincipalID(r), chi.URLParam(r, "userID"))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, p)
}

// ServeMyOrgAvatars handles GET /api/me/org-avatars: { "<org id>": "<avatar url>" }.
func (h *Handler) ServeMyOrgAvatars(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	avatars, err := h.Directory.GetMyOrgAvatars(ctx, auth.PrincipalID(r))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, avatars)
}
