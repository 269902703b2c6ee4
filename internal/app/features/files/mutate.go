// internal/app/features/files/mutate.go
package files

import (
	"context"
	"net/http"

	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type renameRequest struct {
	Name string `json:"name"`
}

type duplicateRequest struct {
	TargetScopeID string `json:"target_scope_id"`
}

type starResponse struct {
	Starred bool `json:"starred"`
}

// ServeRename handles PATCH /api/files/{id} with { "name": "…" }.
func (h *Handler) ServeRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		apierr.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Drive.RenameFile(ctx, auth.PrincipalID(r), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, f)
}

// ServeTrash handles POST /api/files/{id}/trash.
func (h *Handler) ServeTrash(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Drive.MoveToTrash(ctx, auth.PrincipalID(r), chi.URLParam(r, "id")); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeRestore handles POST /api/files/{id}/restore.
func (h *Handler) ServeRestore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Drive.RestoreFile(ctx, auth.PrincipalID(r), chi.URLParam(r, "id")); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeDelete handles DELETE /api/files/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Drive.DeleteForever(ctx, auth.PrincipalID(r), chi.URLParam(r, "id")); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeStar handles POST /api/files/{id}/star and reports the new state.
func (h *Handler) ServeStar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	starred, err := h.Drive.ToggleStar(ctx, auth.PrincipalID(r), chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, starResponse{Starred: starred})
}

// ServeDuplicate handles POST /api/files/{id}/duplicate with
// { "target_scope_id": "…" } and returns the new file (201).
func (h *Handler) ServeDuplicate(w http.ResponseWriter, r *http.Request) {
	var req duplicateRequest
	if err := decode(w, r, &req); err != nil || req.TargetScopeID == "" {
		apierr.BadRequest(w, "target_scope_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	f, err := h.Drive.DuplicateFileTo(ctx, auth.PrincipalID(r), chi.URLParam(r, "id"), req.TargetScopeID)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, f)
}
