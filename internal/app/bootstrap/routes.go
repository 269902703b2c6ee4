// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/stratadrive/internal/app/features/auditlog"
	blobsfeature "github.com/dalemusser/stratadrive/internal/app/features/blobs"
	errorsfeature "github.com/dalemusser/stratadrive/internal/app/features/errors"
	filesfeature "github.com/dalemusser/stratadrive/internal/app/features/files"
	healthfeature "github.com/dalemusser/stratadrive/internal/app/features/health"
	idpfeature "github.com/dalemusser/stratadrive/internal/app/features/idp"
	organizationsfeature "github.com/dalemusser/stratadrive/internal/app/features/organizations"
	profilefeature "github.com/dalemusser/stratadrive/internal/app/features/profile"
	userinfofeature "github.com/dalemusser/stratadrive/internal/app/features/userinfo"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. StrataDrive is a JSON API: every request passes
// through the principal-token middleware, and each feature mounts its own
// subrouter.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	verifier, err := auth.NewVerifier(appCfg.IdpJWTSecret, appCfg.IdpJWTIssuer, logger)
	if err != nil {
		logger.Error("principal token verifier init failed", zap.Error(err))
		return nil, err
	}

	svcs, err := NewServices(appCfg, deps, logger)
	if err != nil {
		return nil, err
	}

	return newRouter(appCfg, deps, svcs, verifier, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, svcs *Services, verifier *auth.Verifier, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Global auth middleware: loads the Principal into context when a valid
	// bearer token is present. Handlers read it via auth.CurrentPrincipal(r).
	r.Use(verifier.LoadPrincipal)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Who am I
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Writes are rate limited per principal; webhook and blob traffic per IP.
	byPrincipal, byIP := passThrough, passThrough
	if appCfg.RateLimitPerMinute > 0 {
		byPrincipal = ratelimit.Middleware(ratelimit.New(appCfg.RateLimitPerMinute, time.Minute), ratelimit.ByPrincipal, logger)
		byIP = ratelimit.Middleware(ratelimit.New(appCfg.RateLimitPerMinute, time.Minute), ratelimit.ByClientIP, logger)
	}

	// Files
	filesHandler := filesfeature.NewHandler(svcs.Drive, logger)
	r.With(byPrincipal).Mount("/api/files", filesfeature.Routes(filesHandler))
	r.Mount("/api/scopes", filesfeature.ScopeRoutes(filesHandler))

	// Directory queries
	orgHandler := organizationsfeature.NewHandler(svcs.Directory, logger)
	r.Mount("/api/orgs", organizationsfeature.Routes(orgHandler))

	profileHandler := profilefeature.NewHandler(svcs.Directory, logger)
	r.Mount("/api/users", profilefeature.Routes(profileHandler))
	r.Mount("/api/me", profilefeature.MeRoutes(profileHandler))

	// Audit trail per scope
	auditHandler := auditlogfeature.NewHandler(svcs.Authz, svcs.Events, logger)
	r.Mount("/api/activity", auditlogfeature.Routes(auditHandler))

	// Identity-provider webhook
	if appCfg.IdpWebhookSecret != "" {
		idpHandler := idpfeature.NewHandler(svcs.Directory, appCfg.IdpWebhookSecret, logger)
		r.With(byIP).Mount("/idp", idpfeature.Routes(idpHandler))
	} else {
		logger.Warn("idp_webhook_secret not set; identity-provider events are disabled")
	}

	// Local blob backend
	if deps.LocalBlobs != nil {
		blobsHandler := blobsfeature.NewHandler(deps.LocalBlobs, appCfg.StorageMaxUploadBytes, logger)
		r.With(byIP).Mount("/blobs", blobsfeature.Routes(blobsHandler))
	}

	return r
}

func passThrough(next http.Handler) http.Handler { return next }
