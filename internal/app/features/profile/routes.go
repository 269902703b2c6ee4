// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes serves user profiles (typically at "/api/users").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{userID}/profile", h.ServeProfile)
	return r
}

// MeRoutes serves the caller's own views (typically at "/api/me").
func MeRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/org-avatars", h.ServeMyOrgAvatars)
	return r
}
