package authz

import (
	"fmt"
	"strings"

	"github.com/dalemusser/stratadrive/internal/domain/models"
)

// Policy decides which scope members may rename, trash, restore or delete a file.
type Policy string

const (
	// PolicyMember lets any principal with scope access mutate files in it.
	PolicyMember Policy = "member"
	// PolicyAdmin requires the admin role for files in an organization scope.
	// A personal scope is always writable by its owner.
	PolicyAdmin Policy = "admin"
	// PolicyOwnerOrAdmin allows the file's creator or an admin of its organization.
	PolicyOwnerOrAdmin Policy = "owner_or_admin"
)

// ParsePolicy validates a configured policy name. Empty means PolicyMember.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyMember, nil
	case PolicyMember, PolicyAdmin, PolicyOwnerOrAdmin:
		return p, nil
	default:
		return "", fmt.Errorf("unknown file mutation policy %q (want member, admin or owner_or_admin)", s)
	}
}

// Allows reports whether u may mutate f. Callers must already have resolved
// scope access; a nil error means allowed.
func (p Policy) Allows(u *models.User, f *models.File) error {
	if u == nil || f == nil {
		return ErrDenied
	}
	if f.ScopeID == u.PrincipalID {
		return nil
	}

	switch p {
	case PolicyAdmin:
		if isOrgAdmin(u, f.ScopeID) {
			return nil
		}
		return ErrDenied
	case PolicyOwnerOrAdmin:
		if f.OwnerPrincipalID == u.PrincipalID || isOrgAdmin(u, f.ScopeID) {
			return nil
		}
		return ErrDenied
	default:
		return nil
	}
}

func isOrgAdmin(u *models.User, orgID string) bool {
	m, ok := u.MembershipFor(orgID)
	return ok && m.Role == models.RoleAdmin
}
