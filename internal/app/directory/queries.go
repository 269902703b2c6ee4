package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MemberSummary is the public face of a user inside a scope.
type MemberSummary struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Profile is what GetUserProfile exposes.
type Profile struct {
	Name        string              `json:"name"`
	Avatar      string              `json:"avatar"`
	PrincipalID string              `json:"principal_id"`
	Memberships []models.Membership `json:"memberships"`
}

func degrade(err error) bool {
	return errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrDenied)
}

// GetOrgMemberSummaries maps user id (hex) to name/avatar for everyone in
// scopeID. Callers without access get an empty map. For organization scopes
// the member list is rebuilt from users' memberships and the organization's
// back-reference is repaired if it drifted.
func (s *Service) GetOrgMemberSummaries(ctx context.Context, principalID, scopeID string) (map[string]MemberSummary, error) {
	out := map[string]MemberSummary{}

	caller, err := s.access.ResolveOrgAccess(ctx, principalID, scopeID)
	if err != nil {
		if degrade(err) {
			return out, nil
		}
		return nil, err
	}

	if scopeID == caller.PrincipalID {
		out[caller.ID.Hex()] = MemberSummary{Name: caller.DisplayName, Avatar: caller.AvatarURL}
		return out, nil
	}

	members, err := s.users.ListByMembership(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, u := range members {
		out[u.ID.Hex()] = MemberSummary{Name: u.DisplayName, Avatar: u.AvatarURL}
		ids = append(ids, u.ID)
	}

	s.repairMembers(ctx, scopeID, ids)
	return out, nil
}

// repairMembers rewrites organizations.member_user_ids when it disagrees with
// users.memberships. Failures are logged; the query result does not depend on it.
func (s *Service) repairMembers(ctx context.Context, orgID string, want []primitive.ObjectID) {
	org, err := s.orgs.GetByExternalID(ctx, orgID)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn("member repair: load organization failed", zap.String("org_id", orgID), zap.Error(err))
			return
		}
		if org, err = s.orgs.Upsert(ctx, orgID, "", ""); err != nil {
			s.log.Warn("member repair: create organization failed", zap.String("org_id", orgID), zap.Error(err))
			return
		}
	}
	if sameIDs(org.MemberUserIDs, want) {
		return
	}
	if err := s.orgs.SetMembers(ctx, orgID, want); err != nil {
		s.log.Warn("member repair failed", zap.String("org_id", orgID), zap.Error(err))
		return
	}
	s.log.Warn("organization member list repaired",
		zap.String("org_id", orgID),
		zap.Int("before", len(org.MemberUserIDs)),
		zap.Int("after", len(want)))
	s.audit.MembershipRepaired(ctx, orgID, org.MemberUserIDs, want)
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i], bs[i] = a[i].Hex(), b[i].Hex()
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// GetUserProfile returns the public profile of userID. Anonymous callers and
// malformed ids get an empty profile.
func (s *Service) GetUserProfile(ctx context.Context, principalID, userID string) (Profile, error) {
	if principalID == "" {
		return Profile{}, nil
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return Profile{}, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}
	return Profile{
		Name:        u.DisplayName,
		Avatar:      u.AvatarURL,
		PrincipalID: u.PrincipalID,
		Memberships: u.Memberships,
	}, nil
}

// GetMyOrgAvatars maps each of the caller's organizations to its avatar URL.
func (s *Service) GetMyOrgAvatars(ctx context.Context, principalID string) (map[string]string, error) {
	out := map[string]string{}
	if principalID == "" {
		return out, nil
	}
	u, err := s.users.GetByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, authz.ErrInconsistentState
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(u.Memberships) == 0 {
		return out, nil
	}

	orgIDs := make([]string, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		orgIDs = append(orgIDs, m.OrgID)
	}
	orgs, err := s.orgs.GetByExternalIDs(ctx, orgIDs)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	for _, o := range orgs {
		out[o.ExternalOrgID] = o.AvatarURL
	}
	return out, nil
}
