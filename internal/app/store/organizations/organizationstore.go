// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"time"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Upsert creates the organization for externalID if it does not exist and
// refreshes any non-empty profile fields. Safe to call repeatedly.
func (s *Store) Upsert(ctx context.Context, externalID, displayName, avatarURL string) (models.Organization, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if displayName != "" {
		set["display_name"] = displayName
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"external_org_id": externalID,
			"member_user_ids": []primitive.ObjectID{},
			"created_at":      now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var org models.Organization
	err := s.c.FindOneAndUpdate(ctx, bson.M{"external_org_id": externalID}, update, opts).Decode(&org)
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an insert race with a concurrent upsert; the document exists now.
		err = s.c.FindOneAndUpdate(ctx, bson.M{"external_org_id": externalID}, update, opts).Decode(&org)
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"external_org_id": externalID}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByExternalIDs loads multiple organizations by provider id.
func (s *Store) GetByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Organization, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"external_org_id": bson.M{"$in": externalIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Update replaces the display name and avatar.
// Returns mongo.ErrNoDocuments when the organization does not exist.
func (s *Store) Update(ctx context.Context, externalID, displayName, avatarURL string) error {
	return s.update(ctx, externalID, bson.M{"$set": bson.M{
		"display_name": displayName,
		"avatar_url":   avatarURL,
		"updated_at":   time.Now().UTC(),
	}})
}

// AddMember adds userID to the member list ($addToSet, so repeats are no-ops).
func (s *Store) AddMember(ctx context.Context, externalID string, userID primitive.ObjectID) error {
	return s.update(ctx, externalID, bson.M{
		"$addToSet": bson.M{"member_user_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveMember pulls userID from the member list.
func (s *Store) RemoveMember(ctx context.Context, externalID string, userID primitive.ObjectID) error {
	return s.update(ctx, externalID, bson.M{
		"$pull": bson.M{"member_user_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// SetMembers overwrites the member list; used by read-repair.
func (s *Store) SetMembers(ctx context.Context, externalID string, userIDs []primitive.ObjectID) error {
	if userIDs == nil {
		userIDs = []primitive.ObjectID{}
	}
	return s.update(ctx, externalID, bson.M{"$set": bson.M{
		"member_user_ids": userIDs,
		"updated_at":      time.Now().UTC(),
	}})
}

func (s *Store) update(ctx context.Context, externalID string, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"external_org_id": externalID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
