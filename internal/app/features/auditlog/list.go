// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/drive"
	apierr "github.com/dalemusser/stratadrive/internal/app/features/errors"
	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/app/system/auth"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pageSize = 50

// ServeList handles GET /api/activity/{scopeID}.
//
// Query parameters: category, event_type, file (id), start_date and
// end_date (YYYY-MM-DD, inclusive), page (1-based). Callers who may not see
// the scope get an empty page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")

	filter, page, err := parseFilter(r, scopeID)
	if err != nil {
		apierr.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	if err := h.authorize(ctx, auth.PrincipalID(r), scopeID); err != nil {
		if drive.IsQueryDegradable(err) {
			apierr.WriteJSON(w, http.StatusOK, listResponse{Items: []item{}, Page: page})
			return
		}
		apierr.Write(w, r, h.Log, err)
		return
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	items := make([]item, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}
	apierr.WriteJSON(w, http.StatusOK, listResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		HasNext: int64(page*pageSize) < total,
	})
}

// authorize allows a personal scope's owner and an organization's admins.
func (h *Handler) authorize(ctx context.Context, principalID, scopeID string) error {
	u, err := h.Access.ResolveOrgAccess(ctx, principalID, scopeID)
	if err != nil {
		return err
	}
	if scopeID == u.PrincipalID {
		return nil
	}
	if m, ok := u.MembershipFor(scopeID); ok && m.Role == models.RoleAdmin {
		return nil
	}
	return authz.ErrDenied
}

var errBadDate = errors.New("dates must be YYYY-MM-DD")

func parseFilter(r *http.Request, scopeID string) (audit.QueryFilter, int, error) {
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		ScopeID:   scopeID,
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if !validCategory(filter.Category) {
		return filter, page, errors.New("unknown category")
	}

	if s := strings.TrimSpace(q.Get("file")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, page, errors.New("invalid file id")
		}
		filter.FileID = &id
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, page, errBadDate
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, page, errBadDate
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	return filter, page, nil
}
