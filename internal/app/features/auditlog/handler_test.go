package auditlog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratadrive/internal/app/features/auditlog"
	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil"
	"github.com/dalemusser/stratadrive/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeEvents filters by scope, file and category and records the last filter.
type fakeEvents struct {
	events []audit.Event
	last   audit.QueryFilter
}

func (f *fakeEvents) match(flt audit.QueryFilter) []audit.Event {
	var out []audit.Event
	for _, e := range f.events {
		if e.ScopeID != flt.ScopeID {
			continue
		}
		if flt.Category != "" && e.Category != flt.Category {
			continue
		}
		if flt.FileID != nil && (e.FileID == nil || *e.FileID != *flt.FileID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (f *fakeEvents) Query(_ context.Context, flt audit.QueryFilter) ([]audit.Event, error) {
	f.last = flt
	return f.match(flt), nil
}

func (f *fakeEvents) CountByFilter(_ context.Context, flt audit.QueryFilter) (int64, error) {
	return int64(len(f.match(flt))), nil
}

type listBody struct {
	Items []struct {
		EventType string `json:"event_type"`
		FileID    string `json:"file_id"`
	} `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	HasNext bool  `json:"has_next"`
}

func setup(t *testing.T) (http.Handler, *fakeEvents, primitive.ObjectID) {
	t.Helper()
	users := memstore.NewUsers()
	ctx := context.Background()
	for p, ms := range map[string][]models.Membership{
		"admin":  {{OrgID: "org1", Role: models.RoleAdmin}},
		"member": {{OrgID: "org1", Role: models.RoleMember}},
		"alice":  nil,
	} {
		_, err := users.Create(ctx, models.User{PrincipalID: p, Memberships: ms})
		require.NoError(t, err)
	}

	fileID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	now := time.Now()
	events := &fakeEvents{events: []audit.Event{
		{ID: primitive.NewObjectID(), Timestamp: now, ScopeID: "org1", Category: audit.CategoryFile, EventType: audit.EventFileUploaded, FileID: &fileID, Success: true},
		{ID: primitive.NewObjectID(), Timestamp: now, ScopeID: "org1", Category: audit.CategoryFile, EventType: audit.EventFileTrashed, FileID: &other, Success: true},
		{ID: primitive.NewObjectID(), Timestamp: now, ScopeID: "org1", Category: audit.CategoryDirectory, EventType: audit.EventMembershipAdded, Success: true},
		{ID: primitive.NewObjectID(), Timestamp: now, ScopeID: "alice", Category: audit.CategoryFile, EventType: audit.EventFileUploaded, Success: true},
	}}

	access := authz.New(users, memstore.NewFiles(), authz.PolicyMember)
	h := auditlog.NewHandler(access, events, zap.NewNop())
	return auditlog.Routes(h), events, fileID
}

func get(t *testing.T, router http.Handler, target, principal string) (*httptest.ResponseRecorder, listBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.Request(t, http.MethodGet, target, principal, nil))
	var body listBody
	if rec.Code == http.StatusOK {
		testutil.DecodeJSON(t, rec, &body)
	}
	return rec, body
}

func TestServeList_OrgAdminSeesScopeEvents(t *testing.T) {
	router, _, _ := setup(t)

	rec, body := get(t, router, "/org1", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.Items, 3)
	assert.EqualValues(t, 3, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.False(t, body.HasNext)
}

func TestServeList_MemberAndOutsiderGetEmptyPage(t *testing.T) {
	router, _, _ := setup(t)

	for _, p := range []string{"member", "alice"} {
		rec, body := get(t, router, "/org1", p)
		require.Equal(t, http.StatusOK, rec.Code, p)
		assert.Empty(t, body.Items, p)
		assert.Zero(t, body.Total, p)
	}
}

func TestServeList_PersonalScopeOwner(t *testing.T) {
	router, _, _ := setup(t)

	rec, body := get(t, router, "/alice", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Items, 1)
	assert.Equal(t, audit.EventFileUploaded, body.Items[0].EventType)

	_, body = get(t, router, "/alice", "admin")
	assert.Empty(t, body.Items)
}

func TestServeList_Unauthenticated(t *testing.T) {
	router, _, _ := setup(t)

	rec, _ := get(t, router, "/org1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeList_Filters(t *testing.T) {
	router, events, fileID := setup(t)

	_, body := get(t, router, "/org1?category=file&file="+fileID.Hex()+"&start_date=2024-01-01&end_date=2024-01-31&page=2", "admin")
	require.NotNil(t, events.last.FileID)
	assert.Equal(t, fileID, *events.last.FileID)
	assert.Equal(t, audit.CategoryFile, events.last.Category)
	assert.EqualValues(t, 50, events.last.Offset)
	require.NotNil(t, events.last.StartTime)
	require.NotNil(t, events.last.EndTime)
	assert.Equal(t, 31, events.last.EndTime.Day())
	assert.Equal(t, 2, body.Page)
}

func TestServeList_BadFilters(t *testing.T) {
	router, _, _ := setup(t)

	for _, q := range []string{"?category=billing", "?file=nope", "?start_date=01/02/2024", "?end_date=tomorrow"} {
		rec, _ := get(t, router, "/org1"+q, "admin")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
