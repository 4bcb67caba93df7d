// internal/app/store/syncstate/syncstatestore.go
package syncstatestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratagrades/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// State records the last grade sync for a student and the health of the
// upstream login session behind it.
type State struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	StudentID     string               `bson:"student_id"`
	User          string               `bson:"user,omitempty"`
	SessionStatus models.SessionStatus `bson:"session_status"`
	LastSyncID    string               `bson:"last_sync_id,omitempty"`
	LastSyncedAt  *time.Time           `bson:"last_synced_at,omitempty"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

// ErrNotFound is returned when no sync state exists for a student.
var ErrNotFound = errors.New("grade sync state not found")

// Store provides sync state persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new sync state store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("grade_sync_states")}
}

// Get returns the sync state for a student.
func (s *Store) Get(ctx context.Context, studentID string) (*State, error) {
	var st State
	if err := s.c.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// SyncInput holds the fields written after a successful sync.
type SyncInput struct {
	StudentID     string
	User          string
	SessionStatus models.SessionStatus
	SyncID        string
}

// Upsert records a completed sync, creating the state on first use.
func (s *Store) Upsert(ctx context.Context, in SyncInput) (*State, error) {
	now := time.Now().UTC()
	status := in.SessionStatus
	if !status.IsValid() {
		status = models.SessionActive
	}

	set := bson.M{
		"session_status": status,
		"last_sync_id":   in.SyncID,
		"last_synced_at": now,
		"updated_at":     now,
	}
	if in.User != "" {
		set["user"] = in.User
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var st State
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"student_id": in.StudentID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"student_id": in.StudentID},
		},
		opts,
	).Decode(&st)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SetSession updates only the session status (and user when non-empty).
// Returns ErrNotFound if the student has never synced.
func (s *Store) SetSession(ctx context.Context, studentID string, status models.SessionStatus, user string) error {
	set := bson.M{
		"session_status": status,
		"updated_at":     time.Now().UTC(),
	}
	if user != "" {
		set["user"] = user
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"student_id": studentID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireStale marks active sessions whose last sync is older than before as
// expired, returning how many were changed.
func (s *Store) ExpireStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"session_status": models.SessionActive,
			"last_synced_at": bson.M{"$lt": before},
		},
		bson.M{"$set": bson.M{
			"session_status": models.SessionExpired,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
