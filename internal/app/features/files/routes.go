// internal/app/features/files/routes.go
package files

import (
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the file routes (typically at "/api/files").
// Every route needs a signed-in principal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/upload-ticket", h.ServeUploadTicket)
		pr.Post("/", h.ServeCommit)
		pr.Patch("/{id}", h.ServeRename)
		pr.Post("/{id}/trash", h.ServeTrash)
		pr.Post("/{id}/restore", h.ServeRestore)
		pr.Delete("/{id}", h.ServeDelete)
		pr.Post("/{id}/star", h.ServeStar)
		pr.Post("/{id}/duplicate", h.ServeDuplicate)
	})

	return r
}

// ScopeRoutes mounts the listing route (typically at "/api/scopes").
// Listing is open: callers without access get an empty list.
func ScopeRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{scopeID}/files", h.ServeList)
	return r
}
