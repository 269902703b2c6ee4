// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (and by `drivectl ensure-indexes`). Each
ensure* function is idempotent. Errors are aggregated so every problem is
visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"organizations", ensureOrganizations},
		{"files", ensureFiles},
		{"stars", ensureStars},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// duplicateHint gives operators a query to find rows blocking a unique index.
func duplicateHint(coll string) string {
	switch coll {
	case "users":
		return ": duplicate principals exist. Example finder:\n" +
			`db.users.aggregate([{ $group: { _id: "$principal_id", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case "files":
		return ": files share a blob key. Example finder:\n" +
			`db.files.aggregate([{ $group: { _id: "$blob_key", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case "stars":
		return ": duplicate stars exist. Example finder:\n" +
			`db.stars.aggregate([{ $group: { _id: { u: "$user_id", s: "$scope_id", f: "$file_id" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops an index with matching keys and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, oldName string, m mongo.IndexModel, name string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		return fmt.Errorf("%s(%s): drop failed: %w", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) && unique {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), name, duplicateHint(coll.Name()))
		}
		return fmt.Errorf("%s(%s): %w", coll.Name(), name, err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		unique := boolVal(desiredUnique)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
		}

		ex, found := listExisting(ctx, coll)[desiredSig]
		switch {
		case found && boolVal(ex.Unique) == unique && (desiredName == "" || ex.Name == desiredName):
			zap.L().Info("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)

		case found:
			// Same keys under another name, or options changed (e.g. upgrading to unique).
			if err := recreate(ctx, coll, ex.Name, m, desiredName, unique); err != nil {
				zap.L().Warn("index recreate failed", append(fields, zap.Error(err))...)
				errs = append(errs, err.Error())
				continue
			}
			zap.L().Info("index dropped and recreated",
				append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)

		default:
			_, err := coll.Indexes().CreateOne(ctx, m)
			if err != nil && isOptionsConflictErr(err) {
				// Raced with another instance or a vendor quirk; reconcile once.
				if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
					if boolVal(ex.Unique) == unique {
						err = nil
					} else {
						err = recreate(ctx, coll, ex.Name, m, desiredName, unique)
					}
				}
			}
			if err != nil {
				if isDuplicateKeyErr(err) && unique {
					err = fmt.Errorf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), desiredName, duplicateHint(coll.Name()))
				}
				zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
				errs = append(errs, err.Error())
				continue
			}
			zap.L().Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Principal ids are issued once by the identity provider.
		{
			Keys:    bson.D{{Key: "principal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_principal"),
		},
		// Member lists and read-repair of organizations.member_user_ids.
		{
			Keys:    bson.D{{Key: "memberships.org_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_membership_org__id"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_org_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_external_id"),
		},
	})
}

func ensureFiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("files"), []mongo.IndexModel{
		// Scope listing in insertion order.
		{
			Keys:    bson.D{{Key: "scope_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_files_scope__id"),
		},
		// Trash sweeper.
		{
			Keys:    bson.D{{Key: "trashed", Value: 1}, {Key: "trashed_at", Value: 1}},
			Options: options.Index().SetName("idx_files_trashed_trashedat"),
		},
		// Name search within a scope.
		{
			Keys:    bson.D{{Key: "scope_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_files_scope_nameci"),
		},
		// A blob is owned by exactly one file.
		{
			Keys:    bson.D{{Key: "blob_key", Value: 1}},
			Options: options.Index().SetName("idx_files_blobkey").SetUnique(true),
		},
	})
}

func ensureStars(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("stars"), []mongo.IndexModel{
		// One star per user per file; also serves the per-scope starred lookup.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "scope_id", Value: 1},
				{Key: "file_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_stars_user_scope_file"),
		},
		// Cascade delete when a file goes away.
		{
			Keys:    bson.D{{Key: "file_id", Value: 1}},
			Options: options.Index().SetName("idx_stars_file"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "scope_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_scope_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
