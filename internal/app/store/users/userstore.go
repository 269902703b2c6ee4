// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateUser      = errors.New("a user with this principal already exists")
	ErrMembershipNotFound = errors.New("expected an org on the user but none was found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user. Memberships start empty (never null) so later
// $push updates work.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	if u.Memberships == nil {
		u.Memberships = []models.Membership{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByPrincipal loads a user by identity-provider principal id.
func (s *Store) GetByPrincipal(ctx context.Context, principalID string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"principal_id": principalID}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs loads multiple users by ObjectID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile replaces the display name and avatar.
// Returns mongo.ErrNoDocuments when no user has principalID.
func (s *Store) UpdateProfile(ctx context.Context, principalID, displayName, avatarURL string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"principal_id": principalID},
		bson.M{"$set": bson.M{
			"display_name": displayName,
			"avatar_url":   avatarURL,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddMembership appends m unless the user already has a membership for
// m.OrgID. Re-adding is a no-op, which keeps identity events replayable.
func (s *Store) AddMembership(ctx context.Context, userID primitive.ObjectID, m models.Membership) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "memberships.org_id": bson.M{"$ne": m.OrgID}},
		bson.M{
			"$push": bson.M{"memberships": m},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.mustExist(ctx, userID)
	}
	return nil
}

// SetMembershipRole changes the role on an existing membership.
func (s *Store) SetMembershipRole(ctx context.Context, userID primitive.ObjectID, orgID, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "memberships.org_id": orgID},
		bson.M{"$set": bson.M{
			"memberships.$.role": role,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.mustExist(ctx, userID); err != nil {
			return err
		}
		return ErrMembershipNotFound
	}
	return nil
}

// RemoveMembership drops the membership for orgID. Removing a missing
// membership is a no-op.
func (s *Store) RemoveMembership(ctx context.Context, userID primitive.ObjectID, orgID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"memberships": bson.M{"org_id": orgID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByMembership returns every user holding a membership in orgID.
func (s *Store) ListByMembership(ctx context.Context, orgID string) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"memberships.org_id": orgID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) mustExist(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
