// internal/app/features/idp/routes.go
package idp

import "github.com/go-chi/chi/v5"

// Routes mounts the identity-provider webhook (typically at "/idp").
// Requests are authenticated by signature, not by principal token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/events", h.ServeEvent)
	return r
}
