// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection holding sync ledger entries.
const Collection = "sync_ledger"

// Entry is one request to the grade ingest API.
type Entry struct {
	ID primitive.ObjectID `bson:"_id"`

	RequestID       string `bson:"request_id"`
	ClientRequestID string `bson:"client_request_id,omitempty"` // X-Request-ID header

	Method   string            `bson:"method"`
	Path     string            `bson:"path"`
	Headers  map[string]string `bson:"headers,omitempty"` // Authorization redacted
	RemoteIP string            `bson:"remote_ip"`

	// Set by the handler once the body has been decoded.
	Student string `bson:"student,omitempty"`
	SyncID  string `bson:"sync_id,omitempty"`
	Count   int    `bson:"count,omitempty"`

	RequestBodySize int64  `bson:"request_body_size"`
	RequestBodyHash string `bson:"request_body_hash,omitempty"` // sha256, first 8 hex chars

	StatusCode   int    `bson:"status_code"`
	ErrorClass   string `bson:"error_class,omitempty"` // validation, auth, not_found, internal
	ErrorMessage string `bson:"error_message,omitempty"`

	StartedAt  time.Time `bson:"started_at"`
	DurationMs float64   `bson:"duration_ms"`
}

// Store provides ledger entry persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new ledger store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new ledger entry.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// RecentForStudent returns the newest entries for a student, newest first.
func (s *Store) RecentForStudent(ctx context.Context, student string, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"student": student}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentErrors returns the newest entries with status >= 400.
func (s *Store) RecentErrors(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"status_code": bson.M{"$gte": 400}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOlderThan removes entries started before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
