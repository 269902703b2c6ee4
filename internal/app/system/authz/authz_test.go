package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type users map[string]models.User

func (u users) GetByPrincipal(_ context.Context, principalID string) (models.User, error) {
	if usr, ok := u[principalID]; ok {
		return usr, nil
	}
	return models.User{}, mongo.ErrNoDocuments
}

type files map[primitive.ObjectID]models.File

func (f files) GetByID(_ context.Context, id primitive.ObjectID) (models.File, error) {
	if file, ok := f[id]; ok {
		return file, nil
	}
	return models.File{}, mongo.ErrNoDocuments
}

func fixture() (*authz.Service, users, files) {
	us := users{
		"u1": {ID: primitive.NewObjectID(), PrincipalID: "u1"},
		"u2": {ID: primitive.NewObjectID(), PrincipalID: "u2", Memberships: []models.Membership{
			{OrgID: "org1", Role: models.RoleMember},
		}},
		"u3": {ID: primitive.NewObjectID(), PrincipalID: "u3", Memberships: []models.Membership{
			{OrgID: "org1", Role: models.RoleAdmin},
		}},
	}
	fs := files{}
	return authz.New(us, fs, authz.PolicyMember), us, fs
}

func TestResolveOrgAccess(t *testing.T) {
	svc, _, _ := fixture()
	ctx := context.Background()

	tests := []struct {
		name      string
		principal string
		scope     string
		wantErr   error
	}{
		{"unauthenticated", "", "org1", authz.ErrUnauthenticated},
		{"unknown user", "ghost", "ghost", authz.ErrInconsistentState},
		{"own personal scope", "u1", "u1", nil},
		{"other personal scope", "u1", "u2", authz.ErrDenied},
		{"org without membership", "u1", "org1", authz.ErrDenied},
		{"org member", "u2", "org1", nil},
		{"org admin", "u3", "org1", nil},
		{"different org", "u2", "org2", authz.ErrDenied},
		{"empty scope", "u1", "", authz.ErrDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.ResolveOrgAccess(ctx, tt.principal, tt.scope)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (u == nil || u.PrincipalID != tt.principal) {
				t.Errorf("expected resolved user %q, got %+v", tt.principal, u)
			}
		})
	}
}

func TestResolveFileAccess(t *testing.T) {
	svc, _, fs := fixture()
	ctx := context.Background()

	orgFile := models.File{ID: primitive.NewObjectID(), Name: "plan.pdf", ScopeID: "org1"}
	fs[orgFile.ID] = orgFile

	t.Run("member sees org file", func(t *testing.T) {
		u, f, err := svc.ResolveFileAccess(ctx, "u2", orgFile.ID.Hex())
		if err != nil {
			t.Fatalf("ResolveFileAccess: %v", err)
		}
		if u.PrincipalID != "u2" || f.ID != orgFile.ID {
			t.Errorf("unexpected grant: %+v %+v", u, f)
		}
	})

	t.Run("non-member denied", func(t *testing.T) {
		_, _, err := svc.ResolveFileAccess(ctx, "u1", orgFile.ID.Hex())
		if !errors.Is(err, authz.ErrDenied) {
			t.Errorf("err = %v, want ErrDenied", err)
		}
	})

	t.Run("missing file is not found, not denied", func(t *testing.T) {
		_, _, err := svc.ResolveFileAccess(ctx, "u1", primitive.NewObjectID().Hex())
		if !errors.Is(err, authz.ErrFileNotFound) {
			t.Errorf("err = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		_, _, err := svc.ResolveFileAccess(ctx, "u1", "not-an-id")
		if !errors.Is(err, authz.ErrFileNotFound) {
			t.Errorf("err = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, _, err := svc.ResolveFileAccess(ctx, "", orgFile.ID.Hex())
		if !errors.Is(err, authz.ErrUnauthenticated) {
			t.Errorf("err = %v, want ErrUnauthenticated", err)
		}
	})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    authz.Policy
		wantErr bool
	}{
		{"", authz.PolicyMember, false},
		{"member", authz.PolicyMember, false},
		{" Admin ", authz.PolicyAdmin, false},
		{"owner_or_admin", authz.PolicyOwnerOrAdmin, false},
		{"superuser", "", true},
	}
	for _, tt := range tests {
		got, err := authz.ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPolicyAllows(t *testing.T) {
	member := &models.User{PrincipalID: "u2", Memberships: []models.Membership{{OrgID: "org1", Role: models.RoleMember}}}
	admin := &models.User{PrincipalID: "u3", Memberships: []models.Membership{{OrgID: "org1", Role: models.RoleAdmin}}}

	byMember := &models.File{ScopeID: "org1", OwnerPrincipalID: "u2"}
	byAdmin := &models.File{ScopeID: "org1", OwnerPrincipalID: "u3"}
	personal := &models.File{ScopeID: "u2", OwnerPrincipalID: "u2"}

	tests := []struct {
		name   string
		policy authz.Policy
		user   *models.User
		file   *models.File
		allow  bool
	}{
		{"member policy, member on admin's file", authz.PolicyMember, member, byAdmin, true},
		{"admin policy, member on own org file", authz.PolicyAdmin, member, byMember, false},
		{"admin policy, admin", authz.PolicyAdmin, admin, byMember, true},
		{"admin policy, personal scope", authz.PolicyAdmin, member, personal, true},
		{"owner policy, creator", authz.PolicyOwnerOrAdmin, member, byMember, true},
		{"owner policy, other member", authz.PolicyOwnerOrAdmin, member, byAdmin, false},
		{"owner policy, admin", authz.PolicyOwnerOrAdmin, admin, byMember, true},
		{"nil user", authz.PolicyMember, nil, byMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Allows(tt.user, tt.file)
			if tt.allow && err != nil {
				t.Errorf("expected allow, got %v", err)
			}
			if !tt.allow && !errors.Is(err, authz.ErrDenied) {
				t.Errorf("expected ErrDenied, got %v", err)
			}
		})
	}
}
