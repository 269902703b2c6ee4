package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user for principalID with the given memberships.
func (f *Fixtures) CreateUser(ctx context.Context, principalID string, memberships ...models.Membership) models.User {
	f.t.Helper()

	if memberships == nil {
		memberships = []models.Membership{}
	}
	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		PrincipalID: principalID,
		DisplayName: "User " + principalID,
		Memberships: memberships,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateOrganization inserts an organization with the given members.
func (f *Fixtures) CreateOrganization(ctx context.Context, externalID, name string, members ...primitive.ObjectID) models.Organization {
	f.t.Helper()

	if members == nil {
		members = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	org := models.Organization{
		ID:            primitive.NewObjectID(),
		ExternalOrgID: externalID,
		DisplayName:   name,
		MemberUserIDs: members,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateFile inserts a file record directly (no blob).
func (f *Fixtures) CreateFile(ctx context.Context, scopeID, name, contentType string, trashed bool) models.File {
	f.t.Helper()

	now := time.Now().UTC()
	file := models.File{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		ContentType: contentType,
		BlobKey:     primitive.NewObjectID().Hex(),
		DownloadURL: "http://blobs.test/" + name,
		ScopeID:     scopeID,
		Trashed:     trashed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if trashed {
		file.TrashedAt = &now
	}
	if _, err := f.db.Collection("files").InsertOne(ctx, file); err != nil {
		f.t.Fatalf("failed to create test file: %v", err)
	}
	return file
}
