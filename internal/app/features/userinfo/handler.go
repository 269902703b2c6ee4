// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/stratadrive/internal/app/system/auth"
)

// Handler reports who the caller's token says they are.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns JSON describing the request's principal.
//
// Response format:
//
//	{ "isAuthenticated": bool, "principal_id": "...", "name": "...", "avatar": "..." }
//
// Anonymous callers get isAuthenticated=false and empty fields, never a 401.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	p, ok := auth.CurrentPrincipal(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
			"principal_id":    "",
			"name":            "",
			"avatar":          "",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"isAuthenticated": true,
		"principal_id":    p.ID,
		"name":            p.Name,
		"avatar":          p.Avatar,
	})
}
