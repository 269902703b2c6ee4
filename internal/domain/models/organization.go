// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization mirrors an identity-provider organization.
// ExternalOrgID doubles as the scope id of files stored in the organization drive.
type Organization struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	ExternalOrgID string               `bson:"external_org_id"`
	DisplayName   string               `bson:"display_name"`
	AvatarURL     string               `bson:"avatar_url,omitempty"`
	MemberUserIDs []primitive.ObjectID `bson:"member_user_ids"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}
