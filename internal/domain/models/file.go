// internal/domain/models/file.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content types a file can have.
const (
	ContentTypeImage = "image"
	ContentTypePDF   = "pdf"
	ContentTypeCSV   = "csv"
)

// File is the metadata record for an uploaded blob.
//
// ScopeID is either an organization's external id or the owner's principal id
// (personal drive). BlobKey and DownloadURL are fixed at creation.
type File struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	NameCI           string             `bson:"name_ci" json:"-"`
	ContentType      string             `bson:"content_type" json:"content_type"`
	BlobKey          string             `bson:"blob_key" json:"blob_key"`
	DownloadURL      string             `bson:"download_url" json:"download_url"`
	ScopeID          string             `bson:"scope_id" json:"scope_id"`
	OwnerPrincipalID string             `bson:"owner_principal_id" json:"owner_principal_id"`
	OwnerUserID      primitive.ObjectID `bson:"owner_user_id" json:"owner_user_id"`
	Trashed          bool               `bson:"trashed" json:"trashed"`
	TrashedAt        *time.Time         `bson:"trashed_at,omitempty" json:"trashed_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// FileWithStar is a File annotated with the calling user's star status.
type FileWithStar struct {
	File
	IsStarred bool `json:"is_starred"`
}
