// Package auth resolves the authenticated principal for a request.
//
// The identity provider issues signed tokens whose subject is the principal
// id. The API accepts them as "Authorization: Bearer <token>". A missing or
// invalid token leaves the request unauthenticated; handlers decide whether
// that degrades to an empty result (queries) or a 401 (mutations).
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Principal is the authenticated caller as described by the identity provider.
type Principal struct {
	ID     string // provider-issued principal id (token subject)
	Name   string
	Avatar string
}

// Claims is the token payload accepted from the identity provider.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned by Verify for any token that fails validation.
var ErrInvalidToken = errors.New("invalid principal token")

// Verifier validates identity-provider tokens.
type Verifier struct {
	secret []byte
	issuer string
	log    *zap.Logger
}

// NewVerifier builds a Verifier for HS256 tokens signed with secret.
// If issuer is non-empty, tokens must carry that "iss" claim.
func NewVerifier(secret, issuer string, logger *zap.Logger) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("principal token secret is empty")
	}
	if len(secret) < 32 {
		logger.Warn("principal token secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, log: logger}, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Principal{ID: claims.Subject, Name: claims.Name, Avatar: claims.Avatar}, nil
}

// LoadPrincipal injects the principal into the request context when a valid
// bearer token is present.
func (v *Verifier) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw != "" {
			p, err := v.Verify(raw)
			if err != nil {
				v.log.Debug("rejecting principal token", zap.Error(err))
			} else {
				r = withPrincipal(r, p)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a principal with a JSON 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"you must be logged in"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentPrincipal returns the principal & "found?" flag.
func CurrentPrincipal(r *http.Request) (*Principal, bool) {
	return FromContext(r.Context())
}

// FromContext returns the principal stored in ctx.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil && p.ID != ""
}

// PrincipalID returns the principal id for r, or "" when unauthenticated.
func PrincipalID(r *http.Request) string {
	if p, ok := CurrentPrincipal(r); ok {
		return p.ID
	}
	return ""
}

// WithTestPrincipal injects p directly, bypassing token verification.
func WithTestPrincipal(r *http.Request, p *Principal) *http.Request {
	return withPrincipal(r, p)
}

func withPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
