// internal/app/store/files/filestore.go
package filestore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/stratadrive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Filter narrows ListByScope. Zero values mean "no constraint".
type Filter struct {
	Trashed      *bool
	ContentType  string
	OwnerUserID  primitive.ObjectID
	NameQuery    string // case-folded substring match on name
	CreatedSince time.Time
	// IDs restricts results to these files; a non-nil empty slice matches nothing.
	IDs []primitive.ObjectID
}

// ErrDuplicateBlobKey is returned by Create when another file already owns the blob.
var ErrDuplicateBlobKey = errors.New("blob is already committed to another file")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("files")}
}

// Create inserts f as a new, untrashed file. Each blob key belongs to at
// most one file (unique index idx_files_blobkey).
func (s *Store) Create(ctx context.Context, f models.File) (models.File, error) {
	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.NameCI = text.Fold(f.Name)
	f.Trashed = false
	f.TrashedAt = nil
	f.CreatedAt = now
	f.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return models.File{}, ErrDuplicateBlobKey
		}
		return models.File{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.File{}, err
	}
	return f, nil
}

// ListByScope returns files in scopeID in insertion order.
func (s *Store) ListByScope(ctx context.Context, scopeID string, f Filter) ([]models.File, error) {
	q := bson.M{"scope_id": scopeID}
	if f.Trashed != nil {
		q["trashed"] = *f.Trashed
	}
	if f.ContentType != "" {
		q["content_type"] = f.ContentType
	}
	if !f.OwnerUserID.IsZero() {
		q["owner_user_id"] = f.OwnerUserID
	}
	if qFold := text.Fold(strings.TrimSpace(f.NameQuery)); qFold != "" {
		q["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(qFold)}
	}
	if !f.CreatedSince.IsZero() {
		q["created_at"] = bson.M{"$gte": f.CreatedSince}
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}

	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.File{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rename sets a new display name. Last write wins.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	return s.set(ctx, id, bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	})
}

// SetTrashed flips the trash flag. Trashing an already-trashed file keeps
// its original trashed_at.
func (s *Store) SetTrashed(ctx context.Context, id primitive.ObjectID, trashed bool) error {
	now := time.Now().UTC()
	if !trashed {
		res, err := s.c.UpdateByID(ctx, id, bson.M{
			"$set":   bson.M{"trashed": false, "updated_at": now},
			"$unset": bson.M{"trashed_at": ""},
		})
		return matched(res, err)
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "trashed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"trashed": true, "trashed_at": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already trashed, or missing.
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
	}
	return nil
}

// Delete removes a file record. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListTrashed returns every trashed file. When before is non-zero only files
// trashed at or before that instant are returned.
func (s *Store) ListTrashed(ctx context.Context, before time.Time) ([]models.File, error) {
	q := bson.M{"trashed": true}
	if !before.IsZero() {
		q["trashed_at"] = bson.M{"$lte": before}
	}
	cur, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.File
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": fields})
	return matched(res, err)
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
