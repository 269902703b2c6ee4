// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership ties a user to an organization scope.
// OrgID is the identity provider's organization id (Organization.ExternalOrgID).
type Membership struct {
	OrgID string `bson:"org_id" json:"org_id"`
	Role  string `bson:"role" json:"role"` // admin | member
}

// User is the durable record for an authenticated principal.
//
// NOTE:
//   - PrincipalID is issued by the identity provider and never changes.
//   - Memberships is the forward side of the user/organization relation;
//     Organization.MemberUserIDs is the back-reference and must agree with it.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrincipalID string             `bson:"principal_id" json:"principal_id"`
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	AvatarURL   string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Memberships []Membership       `bson:"memberships" json:"memberships"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MembershipFor returns the membership for orgID, if any.
func (u *User) MembershipFor(orgID string) (Membership, bool) {
	for _, m := range u.Memberships {
		if m.OrgID == orgID {
			return m, true
		}
	}
	return Membership{}, false
}

// IsValidRole reports whether role is a known membership role.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
