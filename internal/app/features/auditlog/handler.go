// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.uber.org/zap"
)

// ScopeAccess is implemented by authz.Service.
type ScopeAccess interface {
	ResolveOrgAccess(ctx context.Context, principalID, scopeID string) (*models.User, error)
}

// EventReader is implemented by audit.Store.
type EventReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// Handler serves a scope's audit trail.
type Handler struct {
	Access ScopeAccess
	Events EventReader
	Log    *zap.Logger
}

// NewHandler constructs an audit log Handler.
func NewHandler(access ScopeAccess, events EventReader, logger *zap.Logger) *Handler {
	return &Handler{
		Access: access,
		Events: events,
		Log:    logger,
	}
}
