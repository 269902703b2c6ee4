// internal/app/features/blobs/routes.go
package blobs

import "github.com/go-chi/chi/v5"

// Routes mounts the local blob routes (typically at "/blobs"). The upload
// ticket is the credential; no principal is required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Put("/upload/{ticket}", h.ServeUpload)
	r.Get("/{key}", h.ServeDownload)
	return r
}
