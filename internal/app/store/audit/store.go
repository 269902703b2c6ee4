// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryFile      = "file"
	CategoryDirectory = "directory"
)

// File event types
const (
	EventFileUploaded   = "file_uploaded"
	EventFileRenamed    = "file_renamed"
	EventFileTrashed    = "file_trashed"
	EventFileRestored   = "file_restored"
	EventFileDeleted    = "file_deleted"
	EventFileDuplicated = "file_duplicated"
	EventFilePurged     = "file_purged"
)

// Directory event types
const (
	EventUserCreated           = "user_created"
	EventUserUpdated           = "user_updated"
	EventOrgCreated            = "org_created"
	EventOrgUpdated            = "org_updated"
	EventMembershipAdded       = "membership_added"
	EventMembershipRoleChanged = "membership_role_changed"
	EventMembershipRemoved     = "membership_removed"
	EventMembershipRepaired    = "membership_repaired"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
	ScopeID   string             `bson:"scope_id,omitempty"` // org external id or personal principal id

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	ActorPrincipalID string              `bson:"actor_principal_id,omitempty"` // empty for system jobs
	UserID           *primitive.ObjectID `bson:"user_id,omitempty"`            // affected user
	FileID           *primitive.ObjectID `bson:"file_id,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ScopeID   string
	UserID    *primitive.ObjectID
	FileID    *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) toBSON() bson.M {
	query := bson.M{}
	if f.ScopeID != "" {
		query["scope_id"] = f.ScopeID
	}
	if f.UserID != nil {
		query["user_id"] = f.UserID
	}
	if f.FileID != nil {
		query["file_id"] = f.FileID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.toBSON())
}

// GetByFile retrieves the history of one file.
func (s *Store) GetByFile(ctx context.Context, fileID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{FileID: &fileID, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
