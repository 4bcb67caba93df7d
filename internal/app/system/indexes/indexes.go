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
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureGrades(ctx, db); err != nil {
		problems = append(problems, "grades: "+err.Error())
	}
	if err := ensureGradeSyncStates(ctx, db); err != nil {
		problems = append(problems, "grade_sync_states: "+err.Error())
	}
	if err := ensureSyncLedger(ctx, db); err != nil {
		problems = append(problems, "sync_ledger: "+err.Error())
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

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
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
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listExisting returns the collection's current indexes keyed by key signature.
func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{}
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
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes; CreateOne makes it.
		zap.L().Debug("listing indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		wantUnique := unique != nil && *unique
		start := time.Now()
		fields := func(extra ...zap.Field) []zap.Field {
			return append([]zap.Field{
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Bool("unique", wantUnique),
			}, extra...)
		}

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) {
				zap.L().Debug("index already present", fields(zap.String("existing_name", ex.Name))...)
				continue
			}
			// Uniqueness changed: rebuild under the desired options.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", fields(zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		switch {
		case err == nil:
			zap.L().Info("index ensured", fields(
				zap.String("created_name", created),
				zap.Duration("took", time.Since(start)))...)
		case wantUnique && isDuplicateKeyErr(err):
			errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
		case isOptionsConflictErr(err):
			zap.L().Warn("index ensure failed (options conflict)", fields(zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
		default:
			zap.L().Warn("index ensure failed", fields(zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
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

func ensureGrades(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("grades")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Payload build: all grades for a student, newest first
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "date", Value: -1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_grades_student_date_id"),
		},

		// Per-subject lookups within a student
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "subject", Value: 1},
			},
			Options: options.Index().SetName("idx_grades_student_subject"),
		},
	})
}

func ensureGradeSyncStates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("grade_sync_states")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One sync state per student
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_grade_sync_states_student"),
		},

		// Expiry sweep: active sessions not synced recently
		{
			Keys: bson.D{
				{Key: "session_status", Value: 1},
				{Key: "last_synced_at", Value: 1},
			},
			Options: options.Index().SetName("idx_grade_sync_states_status_synced"),
		},
	})
}

func ensureSyncLedger(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("sync_ledger")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Per-student history, newest first
		{
			Keys: bson.D{
				{Key: "student", Value: 1},
				{Key: "started_at", Value: -1},
			},
			Options: options.Index().SetName("idx_sync_ledger_student_started"),
		},

		// Recent errors and retention pruning
		{
			Keys: bson.D{
				{Key: "status_code", Value: 1},
				{Key: "started_at", Value: -1},
			},
			Options: options.Index().SetName("idx_sync_ledger_status_started"),
		},
		{
			Keys:    bson.D{{Key: "started_at", Value: 1}},
			Options: options.Index().SetName("idx_sync_ledger_started"),
		},
	})
}
