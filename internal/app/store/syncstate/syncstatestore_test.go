package syncstatestore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratagrades/internal/domain/models"
	"github.com/dalemusser/stratagrades/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Get(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := store.Upsert(ctx, SyncInput{StudentID: "s1", User: "Ada", SessionStatus: models.SessionActive, SyncID: "a"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if st.StudentID != "s1" || st.User != "Ada" || st.LastSyncID != "a" {
		t.Errorf("Upsert() = %+v", st)
	}
	if st.LastSyncedAt == nil {
		t.Error("LastSyncedAt should be set")
	}

	// Second sync without a user keeps the stored one.
	st, err = store.Upsert(ctx, SyncInput{StudentID: "s1", SyncID: "b"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if st.User != "Ada" {
		t.Errorf("User = %q, want Ada", st.User)
	}
	if st.LastSyncID != "b" {
		t.Errorf("LastSyncID = %q, want b", st.LastSyncID)
	}
	if st.SessionStatus != models.SessionActive {
		t.Errorf("SessionStatus = %q, want active", st.SessionStatus)
	}

	n, err := db.Collection("grade_sync_states").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}
}

func TestStore_SetSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.SetSession(ctx, "s1", models.SessionExpired, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetSession() on unknown student error = %v, want ErrNotFound", err)
	}

	if _, err := store.Upsert(ctx, SyncInput{StudentID: "s1", User: "Ada", SyncID: "a"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.SetSession(ctx, "s1", models.SessionExpired, ""); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}

	st, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if st.SessionStatus != models.SessionExpired {
		t.Errorf("SessionStatus = %q, want expired", st.SessionStatus)
	}
	if st.User != "Ada" {
		t.Errorf("User = %q, want Ada", st.User)
	}
}

func TestStore_ExpireStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, id := range []string{"old", "fresh"} {
		if _, err := store.Upsert(ctx, SyncInput{StudentID: id, SyncID: "x"}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}
	past := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := db.Collection("grade_sync_states").UpdateOne(ctx,
		bson.M{"student_id": "old"},
		bson.M{"$set": bson.M{"last_synced_at": past}},
	); err != nil {
		t.Fatalf("UpdateOne() error = %v", err)
	}

	n, err := store.ExpireStale(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ExpireStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("ExpireStale() = %d, want 1", n)
	}

	old, _ := store.Get(ctx, "old")
	fresh, _ := store.Get(ctx, "fresh")
	if old.SessionStatus != models.SessionExpired {
		t.Errorf("old status = %q, want expired", old.SessionStatus)
	}
	if fresh.SessionStatus != models.SessionActive {
		t.Errorf("fresh status = %q, want active", fresh.SessionStatus)
	}

	// Already expired states are not counted again.
	if n, _ := store.ExpireStale(ctx, time.Now().UTC().Add(-24*time.Hour)); n != 0 {
		t.Errorf("second ExpireStale() = %d, want 0", n)
	}
}
