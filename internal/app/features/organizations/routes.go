// internal/app/features/organizations/routes.go
package organizations

import "github.com/go-chi/chi/v5"

// Routes serves organization endpoints (typically at "/api/orgs").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{orgID}/members", h.ServeMembers)
	return r
}
