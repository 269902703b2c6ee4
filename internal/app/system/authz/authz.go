// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrUnauthenticated means no principal was supplied.
	ErrUnauthenticated = errors.New("you must be logged in")
	// ErrDenied means the principal has no access to the scope.
	ErrDenied = errors.New("you do not have access to this organization")
	// ErrFileNotFound means the referenced file does not exist (or the id is malformed).
	ErrFileNotFound = errors.New("file not found")
	// ErrInconsistentState means an authenticated principal has no user record.
	ErrInconsistentState = errors.New("expected user to be defined")
)

// UserFinder looks users up by principal id.
type UserFinder interface {
	GetByPrincipal(ctx context.Context, principalID string) (models.User, error)
}

// FileFinder looks file records up by id.
type FileFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.File, error)
}

// Service answers "can principal P act on scope/file S".
// Every file mutation routes through ResolveFileAccess before touching the
// file store; the trash sweeper never calls it.
type Service struct {
	users  UserFinder
	files  FileFinder
	policy Policy
}

// New builds an authorization Service.
func New(users UserFinder, files FileFinder, policy Policy) *Service {
	if policy == "" {
		policy = PolicyMember
	}
	return &Service{users: users, files: files, policy: policy}
}

// Policy returns the configured mutation policy.
func (s *Service) Policy() Policy { return s.policy }

// ResolveOrgAccess returns the caller's user record when the caller may act on
// scopeID: either a membership for scopeID exists, or scopeID is the caller's
// own personal scope.
func (s *Service) ResolveOrgAccess(ctx context.Context, principalID, scopeID string) (*models.User, error) {
	if principalID == "" {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.GetByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInconsistentState
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if scopeID != "" && scopeID == u.PrincipalID {
		return &u, nil
	}
	if _, ok := u.MembershipFor(scopeID); ok {
		return &u, nil
	}
	return nil, ErrDenied
}

// ResolveFileAccess loads the file and checks the caller's access to its scope.
// A missing file is reported before any scope check.
func (s *Service) ResolveFileAccess(ctx context.Context, principalID, fileID string) (*models.User, *models.File, error) {
	if principalID == "" {
		return nil, nil, ErrUnauthenticated
	}

	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, ErrFileNotFound
	}
	f, err := s.files.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("load file: %w", err)
	}

	u, err := s.ResolveOrgAccess(ctx, principalID, f.ScopeID)
	if err != nil {
		return nil, nil, err
	}
	return u, &f, nil
}

// AuthorizeMutation applies the mutation policy to a user that already has
// scope access to f.
func (s *Service) AuthorizeMutation(u *models.User, f *models.File) error {
	return s.policy.Allows(u, f)
}
