// Package directory keeps users, organizations and their memberships in sync
// with the identity provider.
//
// User.Memberships is the forward side of the relation and is authoritative;
// Organization.MemberUserIDs is the back-reference. Membership changes write
// both sides through the transaction runner. Every write is idempotent, so a
// redelivered identity event converges, and GetOrgMemberSummaries repairs any
// drift it observes.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/stratadrive/internal/app/store/users"
	"github.com/dalemusser/stratadrive/internal/app/system/auditlog"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("expected user to be defined")
	ErrOrgNotFound        = errors.New("expected organization to be defined")
	ErrMembershipNotFound = userstore.ErrMembershipNotFound
	ErrInvalidRole        = errors.New("role must be admin or member")
	ErrInvalidInput       = errors.New("principal and organization ids are required")
)

// UserRepo is implemented by userstore.Store.
type UserRepo interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByPrincipal(ctx context.Context, principalID string) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, principalID, displayName, avatarURL string) error
	AddMembership(ctx context.Context, userID primitive.ObjectID, m models.Membership) error
	SetMembershipRole(ctx context.Context, userID primitive.ObjectID, orgID, role string) error
	RemoveMembership(ctx context.Context, userID primitive.ObjectID, orgID string) error
	ListByMembership(ctx context.Context, orgID string) ([]models.User, error)
}

// OrgRepo is implemented by organizationstore.Store.
type OrgRepo interface {
	Upsert(ctx context.Context, externalID, displayName, avatarURL string) (models.Organization, error)
	GetByExternalID(ctx context.Context, externalID string) (models.Organization, error)
	GetByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Organization, error)
	Update(ctx context.Context, externalID, displayName, avatarURL string) error
	AddMember(ctx context.Context, externalID string, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, externalID string, userID primitive.ObjectID) error
	SetMembers(ctx context.Context, externalID string, userIDs []primitive.ObjectID) error
}

// ScopeAccess is implemented by authz.Service.
type ScopeAccess interface {
	ResolveOrgAccess(ctx context.Context, principalID, scopeID string) (*models.User, error)
}

// TxRunner runs fn as one unit of work (txn.Run in production).
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service implements the identity-provider receivers and directory queries.
type Service struct {
	users  UserRepo
	orgs   OrgRepo
	access ScopeAccess
	runTx  TxRunner
	audit  *auditlog.Logger
	log    *zap.Logger
}

// New builds a directory Service. audit may be nil.
func New(users UserRepo, orgs OrgRepo, access ScopeAccess, runTx TxRunner, audit *auditlog.Logger, log *zap.Logger) *Service {
	return &Service{users: users, orgs: orgs, access: access, runTx: runTx, audit: audit, log: log}
}

/* -------------------------------------------------------------------------- */
/* Users                                                                      */
/* -------------------------------------------------------------------------- */

// CreateUser records a principal on its first sign-in. A repeated callback
// returns the existing user unchanged.
func (s *Service) CreateUser(ctx context.Context, principalID, displayName, avatarURL string) (models.User, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return models.User{}, ErrInvalidInput
	}

	if u, err := s.users.GetByPrincipal(ctx, principalID); err == nil {
		return u, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	u, err := s.users.Create(ctx, models.User{
		PrincipalID: principalID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	})
	if errors.Is(err, userstore.ErrDuplicateUser) {
		// A concurrent callback created it first.
		return s.users.GetByPrincipal(ctx, principalID)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.String("principal_id", principalID), zap.String("user_id", u.ID.Hex()))
	s.audit.UserCreated(ctx, &u)
	return u, nil
}

// UpdateUser syncs the display name and avatar from the identity provider.
func (s *Service) UpdateUser(ctx context.Context, principalID, displayName, avatarURL string) error {
	if err := s.users.UpdateProfile(ctx, principalID, displayName, avatarURL); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	if u, err := s.users.GetByPrincipal(ctx, principalID); err == nil {
		s.audit.UserUpdated(ctx, &u)
	}
	return nil
}

func (s *Service) userByPrincipal(ctx context.Context, principalID string) (models.User, error) {
	u, err := s.users.GetByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

/* -------------------------------------------------------------------------- */
/* Memberships                                                                */
/* -------------------------------------------------------------------------- */

// HandleMembershipChange applies a "user joined organization" event. The
// organization is created from the event's profile if it is not known yet,
// and a redelivered event with a different role updates the role.
func (s *Service) HandleMembershipChange(ctx context.Context, principalID, orgID, role, orgName, orgAvatar string) error {
	if principalID == "" || orgID == "" {
		return ErrInvalidInput
	}
	if !models.IsValidRole(role) {
		return ErrInvalidRole
	}
	u, err := s.userByPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	existing, had := u.MembershipFor(orgID)

	err = s.runTx(ctx, func(ctx context.Context) error {
		if _, err := s.orgs.Upsert(ctx, orgID, orgName, orgAvatar); err != nil {
			return fmt.Errorf("upsert organization: %w", err)
		}
		if err := s.users.AddMembership(ctx, u.ID, models.Membership{OrgID: orgID, Role: role}); err != nil {
			return fmt.Errorf("add membership: %w", err)
		}
		if had && existing.Role != role {
			if err := s.users.SetMembershipRole(ctx, u.ID, orgID, role); err != nil {
				return fmt.Errorf("set role: %w", err)
			}
		}
		if err := s.orgs.AddMember(ctx, orgID, u.ID); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("membership added",
		zap.String("principal_id", principalID),
		zap.String("org_id", orgID),
		zap.String("role", role))
	s.audit.MembershipAdded(ctx, &u, orgID, role)
	return nil
}

// UpdateRoleInOrg changes the role of an existing membership.
func (s *Service) UpdateRoleInOrg(ctx context.Context, principalID, orgID, role string) error {
	if !models.IsValidRole(role) {
		return ErrInvalidRole
	}
	u, err := s.userByPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	if err := s.users.SetMembershipRole(ctx, u.ID, orgID, role); err != nil {
		if errors.Is(err, userstore.ErrMembershipNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("set role: %w", err)
	}
	s.audit.MembershipRoleChanged(ctx, &u, orgID, role)
	return nil
}

// RemoveMembership applies a "user left organization" event. Removing a
// membership that is already gone succeeds.
func (s *Service) RemoveMembership(ctx context.Context, principalID, orgID string) error {
	u, err := s.userByPrincipal(ctx, principalID)
	if err != nil {
		return err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.users.RemoveMembership(ctx, u.ID, orgID); err != nil {
			return fmt.Errorf("remove membership: %w", err)
		}
		if err := s.orgs.RemoveMember(ctx, orgID, u.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("membership removed", zap.String("principal_id", principalID), zap.String("org_id", orgID))
	s.audit.MembershipRemoved(ctx, &u, orgID)
	return nil
}

/* -------------------------------------------------------------------------- */
/* Organizations                                                              */
/* -------------------------------------------------------------------------- */

// CreateOrganization records an organization created at the identity provider.
// Repeating the event refreshes the profile.
func (s *Service) CreateOrganization(ctx context.Context, orgID, displayName, avatarURL string) (models.Organization, error) {
	if orgID == "" {
		return models.Organization{}, ErrInvalidInput
	}
	org, err := s.orgs.Upsert(ctx, orgID, displayName, avatarURL)
	if err != nil {
		return models.Organization{}, fmt.Errorf("upsert organization: %w", err)
	}
	s.audit.OrgCreated(ctx, &org)
	return org, nil
}

// UpdateOrganization syncs a rename or avatar change.
func (s *Service) UpdateOrganization(ctx context.Context, orgID, displayName, avatarURL string) error {
	if err := s.orgs.Update(ctx, orgID, displayName, avatarURL); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrOrgNotFound
		}
		return fmt.Errorf("update organization: %w", err)
	}
	s.audit.OrgUpdated(ctx, orgID, displayName)
	return nil
}
