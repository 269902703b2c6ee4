// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity feed (typically at "/api/activity").
//
// A personal scope's owner sees its events; an organization's events are
// visible to its admins only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/{scopeID}", h.ServeList)
	})

	return r
}
