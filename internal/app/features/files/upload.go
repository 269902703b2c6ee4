// internal/app/features/files/upload.go
package files

import (
	"context"
	"net/http"

	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
)

// ServeUploadTicket handles POST /api/files/upload-ticket.
//
//	{ "upload_url": "…", "blob_key": "…" }
func (h *Handler) ServeUploadTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Drive.GenerateUploadTicket(ctx, auth.PrincipalID(r))
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, t)
}

// ServeCommit handles POST /api/files. The body is a drive.UploadInput; the
// response is the created file (201).
func (h *Handler) ServeCommit(w http.ResponseWriter, r *http.Request) {
	var in drive.UploadInput
	if err := decode(w, r, &in); err != nil {
		apierr.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, err := h.Drive.UploadCommit(ctx, auth.PrincipalID(r), in)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, f)
}
