// internal/domain/models/star.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Star is a per-user bookmark on a file. (UserID, ScopeID, FileID) is unique.
type Star struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	FileID    primitive.ObjectID `bson:"file_id"`
	ScopeID   string             `bson:"scope_id"`
	CreatedAt time.Time          `bson:"created_at"`
}
