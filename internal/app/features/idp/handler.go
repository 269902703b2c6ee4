// internal/app/features/idp/handler.go
package idp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dalemusser/stratadrive/internal/app/directory"
	"go.uber.org/zap"
)

// SignatureHeader carries "sha256=<hex HMAC of the raw body>".
const SignatureHeader = "X-Idp-Signature"

var (
	errBadSignature = errors.New("invalid signature")
	errUnknownEvent = errors.New("unknown event type")
)

// Handler receives identity-provider events and applies them to the
// user and organization directories.
type Handler struct {
	Directory *directory.Service
	Secret    []byte
	Log       *zap.Logger
}

// NewHandler constructs an idp Handler. Every request must be signed with
// secret.
func NewHandler(dir *directory.Service, secret string, logger *zap.Logger) *Handler {
	return &Handler{
		Directory: dir,
		Secret:    []byte(secret),
		Log:       logger,
	}
}

// Sign returns the signature header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verify(header string, body []byte) error {
	if len(h.Secret) == 0 {
		return errBadSignature
	}
	got, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return errBadSignature
	}
	sig, err := hex.DecodeString(got)
	if err != nil {
		return errBadSignature
	}
	mac := hmac.New(sha256.New, h.Secret)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return errBadSignature
	}
	return nil
}
