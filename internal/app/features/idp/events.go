// internal/app/features/idp/events.go
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/system/limits"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Event types accepted on POST /idp/events.
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventOrganizationCreated = "organization.created"
	EventOrganizationUpdated = "organization.updated"
	EventMembershipCreated   = "membership.created"
	EventMembershipUpdated   = "membership.updated"
	EventMembershipDeleted   = "membership.deleted"
)

// Event is the webhook envelope.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData is the union of fields used by the event types. Unused fields
// are ignored.
type EventData struct {
	PrincipalID string `json:"principal_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	OrgID       string `json:"org_id,omitempty"`
	OrgName     string `json:"org_name,omitempty"`
	OrgAvatar   string `json:"org_avatar,omitempty"`
	Role        string `json:"role,omitempty"`
}

// normalizeRole accepts provider-prefixed roles such as "org:admin".
func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(role), "org:"))
}

// ServeEvent handles POST /idp/events. 204 means applied; a 4xx means the
// event will never apply; a 5xx asks the provider to redeliver.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limits.MaxEventBody))
	if err != nil {
		apierr.BadRequest(w, "unreadable body")
		return
	}
	if err := h.verify(r.Header.Get(SignatureHeader), body); err != nil {
		h.Log.Warn("rejected identity event", zap.Error(err))
		apierr.WriteJSON(w, http.StatusUnauthorized, apierr.Body{Error: err.Error()})
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		apierr.BadRequest(w, "invalid event")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.apply(ctx, ev); err != nil {
		if errors.Is(err, errUnknownEvent) {
			apierr.BadRequest(w, "unknown event type "+ev.Type)
			return
		}
		apierr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Debug("identity event applied", zap.String("type", ev.Type))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apply(ctx context.Context, ev Event) error {
	d := ev.Data
	switch ev.Type {
	case EventUserCreated:
		_, err := h.Directory.CreateUser(ctx, d.PrincipalID, d.Name, d.Avatar)
		return err
	case EventUserUpdated:
		return h.Directory.UpdateUser(ctx, d.PrincipalID, d.Name, d.Avatar)
	case EventOrganizationCreated:
		_, err := h.Directory.CreateOrganization(ctx, d.OrgID, d.OrgName, d.OrgAvatar)
		return err
	case EventOrganizationUpdated:
		return h.Directory.UpdateOrganization(ctx, d.OrgID, d.OrgName, d.OrgAvatar)
	case EventMembershipCreated:
		return h.Directory.HandleMembershipChange(ctx, d.PrincipalID, d.OrgID, normalizeRole(d.Role), d.OrgName, d.OrgAvatar)
	case EventMembershipUpdated:
		return h.Directory.UpdateRoleInOrg(ctx, d.PrincipalID, d.OrgID, normalizeRole(d.Role))
	case EventMembershipDeleted:
		return h.Directory.RemoveMembership(ctx, d.PrincipalID, d.OrgID)
	default:
		return errUnknownEvent
	}
}
