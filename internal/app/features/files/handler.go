// internal/app/features/files/handler.go
package files

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/limits"
	"go.uber.org/zap"
)

// Handler serves the drive's JSON API.
type Handler struct {
	Drive *drive.Service
	Log   *zap.Logger
}

// NewHandler constructs a files Handler.
func NewHandler(svc *drive.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Drive: svc,
		Log:   logger,
	}
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
