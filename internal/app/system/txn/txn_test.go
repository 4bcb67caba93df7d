package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/stratagrades/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"code 20", mongo.CommandError{Code: 20, Message: "x"}, true},
		{"code 263 wrapped", fmt.Errorf("op: %w", mongo.CommandError{Code: 263}), true},
		{"other code", mongo.CommandError{Code: 11000, Message: "duplicate key"}, false},
		{"message match", errors.New("Transaction numbers are only allowed on a replica set member"), true},
		{"single keyword", errors.New("session cookie missing"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_test")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := Run(ctx, db, nil, func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestRun_JoinsEnclosingSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := db.Client().StartSession()
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	defer sess.EndSession(ctx)
	sc := mongo.NewSessionContext(ctx, sess)

	calls := 0
	err = Run(sc, db, nil, func(inner context.Context) error {
		calls++
		if mongo.SessionFromContext(inner) != sess {
			t.Error("inner unit did not reuse the enclosing session")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
