// internal/app/store/stars/starstore.go
package starstore

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
	return &Store{c: db.Collection("stars")}
}

// Toggle removes the user's star on the file if present, otherwise adds it.
// It reports the resulting state. The unique (user_id, scope_id, file_id)
// index turns a concurrent double-insert into a duplicate-key error, which
// means the other toggle already starred it.
func (s *Store) Toggle(ctx context.Context, userID primitive.ObjectID, f models.File) (bool, error) {
	key := bson.M{"user_id": userID, "scope_id": f.ScopeID, "file_id": f.ID}

	res, err := s.c.DeleteOne(ctx, key)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = s.c.InsertOne(ctx, models.Star{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		FileID:    f.ID,
		ScopeID:   f.ScopeID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// StarredFileIDs returns the ids of files the user starred in scopeID.
func (s *Store) StarredFileIDs(ctx context.Context, userID primitive.ObjectID, scopeID string) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID, "scope_id": scopeID},
		options.Find().SetProjection(bson.M{"file_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var st models.Star
		if err := cur.Decode(&st); err != nil {
			return nil, err
		}
		ids = append(ids, st.FileID)
	}
	return ids, cur.Err()
}

// DeleteByFile removes every user's star on fileID.
func (s *Store) DeleteByFile(ctx context.Context, fileID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"file_id": fileID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountForFile counts every user's star on fileID.
func (s *Store) CountForFile(ctx context.Context, fileID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"file_id": fileID})
}
