// internal/app/store/grades/gradestore.go
package gradestore

import (
	"context"
	"time"

	"github.com/dalemusser/stratagrades/internal/app/system/txn"
	"github.com/dalemusser/stratagrades/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Record is one stored assignment grade for a student.
type Record struct {
	ID        primitive.ObjectID `bson:"_id"`
	StudentID string             `bson:"student_id"`
	SyncID    string             `bson:"sync_id"`
	Subject   string             `bson:"subject"`
	Title     string             `bson:"title"`
	Percent   float64            `bson:"percent"`
	Date      string             `bson:"date,omitempty"`
	Score     *float64           `bson:"score,omitempty"`
	MaxPoints *float64           `bson:"max_points,omitempty"`
	Trend     []float64          `bson:"trend,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Grade converts the record to its payload form.
func (r Record) Grade() models.Grade {
	return models.Grade{
		Subject:   r.Subject,
		Title:     r.Title,
		Percent:   r.Percent,
		Date:      r.Date,
		Trend:     r.Trend,
		Score:     r.Score,
		MaxPoints: r.MaxPoints,
	}
}

// Store provides grade persistence.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a new grade store.
func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, c: db.Collection("grades"), log: log}
}

// ReplaceForStudent swaps the student's whole grade set for grades, tagging
// each record with syncID. On a replica set the delete and insert commit
// together; on a standalone server they run back to back.
func (s *Store) ReplaceForStudent(ctx context.Context, studentID, syncID string, grades []models.Grade) (int, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(grades))
	for _, g := range grades {
		docs = append(docs, Record{
			ID:        primitive.NewObjectID(),
			StudentID: studentID,
			SyncID:    syncID,
			Subject:   g.Subject,
			Title:     g.Title,
			Percent:   g.Percent,
			Date:      g.Date,
			Score:     g.Score,
			MaxPoints: g.MaxPoints,
			Trend:     g.Trend,
			CreatedAt: now,
		})
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID}); err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// ListForStudent returns the student's grades, newest date first. Records
// with equal dates keep their ingest order.
func (s *Store) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountForStudent returns how many grades are stored for the student.
func (s *Store) CountForStudent(ctx context.Context, studentID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"student_id": studentID})
}
