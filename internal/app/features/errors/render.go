// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/stratadrive/internal/app/directory"
	"github.com/dalemusser/stratadrive/internal/app/drive"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"go.uber.org/zap"
)

// Body is the JSON error envelope.
type Body struct {
	Error string `json:"error"`
}

// msgInternal is shown for every error we do not classify.
const msgInternal = "internal error"

// WriteJSON writes v as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Status maps a service error onto an HTTP status and a client-safe message.
func Status(err error) (int, string) {
	switch {
	case stderrors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized, authz.ErrUnauthenticated.Error()
	case stderrors.Is(err, authz.ErrDenied):
		return http.StatusForbidden, authz.ErrDenied.Error()
	case stderrors.Is(err, authz.ErrFileNotFound):
		return http.StatusNotFound, authz.ErrFileNotFound.Error()
	case stderrors.Is(err, directory.ErrUserNotFound):
		return http.StatusNotFound, directory.ErrUserNotFound.Error()
	case stderrors.Is(err, directory.ErrOrgNotFound):
		return http.StatusNotFound, directory.ErrOrgNotFound.Error()
	case stderrors.Is(err, directory.ErrMembershipNotFound):
		return http.StatusNotFound, directory.ErrMembershipNotFound.Error()
	case stderrors.Is(err, drive.ErrValidation),
		stderrors.Is(err, directory.ErrInvalidInput),
		stderrors.Is(err, directory.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	case stderrors.Is(err, drive.ErrStorage):
		return http.StatusInternalServerError, drive.ErrStorage.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// Write reports err to the client. Server-side failures are logged with the
// request path; client errors are not.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	WriteJSON(w, status, Body{Error: msg})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, Body{Error: msg})
}
