// internal/app/features/organizations/handler.go
package organizations

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

// Handler serves organization lookups.
type Handler struct {
	Directory *directory.Service
	Log       *zap.Logger
}

// NewHandler constructs an organizations Handler.
func NewHandler(dir *directory.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Directory: dir,
		Log:       logger,
	}
}

// ServeMembers handles GET /api/orgs/{orgID}/members.
//
//	{ "<user id>": { "name": "…", "avatar": "…" }, … }
//
// A personal scope id returns just the caller. No access returns {}.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Directory.GetOrgMemberSummaries(ctx, auth.PrincipalID(r), chi.URLParam(r, "orgID"))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, members)
}
