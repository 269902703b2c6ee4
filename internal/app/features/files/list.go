// internal/app/features/files/list.go
package files

import (
	"context"
	"net/http"
	"time"

	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /api/scopes/{scopeID}/files.
//
// Query: view=all|active|starred|trash, type=image|pdf|csv, uploader=<user id>,
// q=<name substring>, since=<RFC 3339>. The response is always a JSON array.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	q := drive.ListQuery{
		View:        qv.Get("view"),
		ContentType: qv.Get("type"),
		Uploader:    qv.Get("uploader"),
		Search:      qv.Get("q"),
	}
	if s := qv.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			apierr.BadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		q.Since = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Drive.ListFiles(ctx, auth.PrincipalID(r), chi.URLParam(r, "scopeID"), q)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, list)
}
