// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/stratadrive/internal/app/store/audit"
)

// item is one audit event as returned by the API.
type item struct {
	ID               string            `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	Category         string            `json:"category"`
	EventType        string            `json:"event_type"`
	ActorPrincipalID string            `json:"actor_principal_id,omitempty"`
	FileID           string            `json:"file_id,omitempty"`
	UserID           string            `json:"user_id,omitempty"`
	Success          bool              `json:"success"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
}

// listResponse is the body of GET /api/activity/{scopeID}.
type listResponse struct {
	Items   []item `json:"items"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	HasNext bool   `json:"has_next"`
}

func toItem(e audit.Event) item {
	it := item{
		ID:               e.ID.Hex(),
		Timestamp:        e.Timestamp,
		Category:         e.Category,
		EventType:        e.EventType,
		ActorPrincipalID: e.ActorPrincipalID,
		Success:          e.Success,
		FailureReason:    e.FailureReason,
		Details:          e.Details,
	}
	if e.FileID != nil {
		it.FileID = e.FileID.Hex()
	}
	if e.UserID != nil {
		it.UserID = e.UserID.Hex()
	}
	return it
}

// validCategory reports whether c is empty or a known category.
func validCategory(c string) bool {
	switch c {
	case "", audit.CategoryFile, audit.CategoryDirectory:
		return true
	default:
		return false
	}
}
