package organizations_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadrive/internal/app/directory"
	"github.com/dalemusser/stratadrive/internal/app/features/organizations"
	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/stratadrive/internal/testutil"
	"github.com/dalemusser/stratadrive/internal/testutil/memstore"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, map[string]models.User) {
	t.Helper()
	users := memstore.NewUsers()
	orgs := memstore.NewOrgs()
	access := authz.New(users, memstore.NewFiles(), authz.PolicyMember)
	dir := directory.New(users, orgs, access, memstore.NoTx, nil, zap.NewNop())
	ctx := context.Background()

	created := map[string]models.User{}
	for _, p := range []string{"u1", "u2", "u3"} {
		u, err := dir.CreateUser(ctx, p, "Name "+p, "https://img/"+p+".png")
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		created[p] = u
	}
	for _, p := range []string{"u1", "u2"} {
		if err := dir.HandleMembershipChange(ctx, p, "org1", models.RoleMember, "Org One", ""); err != nil {
			t.Fatalf("HandleMembershipChange: %v", err)
		}
	}
	return organizations.Routes(organizations.NewHandler(dir, zap.NewNop())), created
}

func TestServeMembers(t *testing.T) {
	router, users := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.Request(t, http.MethodGet, "/org1/members", "u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got map[string]struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 members, got %v", got)
	}
	if m := got[users["u2"].ID.Hex()]; m.Name != "Name u2" || m.Avatar != "https://img/u2.png" {
		t.Errorf("u2 summary = %+v", m)
	}
}

func TestServeMembers_NoAccessIsEmpty(t *testing.T) {
	router, _ := newRouter(t)

	for _, principal := range []string{"u3", ""} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, testutil.Request(t, http.MethodGet, "/org1/members", principal, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: status %d", principal, rec.Code)
		}
		if body := rec.Body.String(); body != "{}\n" {
			t.Errorf("%q: body %q, want {}", principal, body)
		}
	}
}

func TestServeMembers_PersonalScope(t *testing.T) {
	router, users := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.Request(t, http.MethodGet, "/u3/members", "u3", nil))
	var got map[string]any
	testutil.DecodeJSON(t, rec, &got)
	if _, ok := got[users["u3"].ID.Hex()]; !ok || len(got) != 1 {
		t.Errorf("personal scope should list only the caller, got %v", got)
	}
}
