package ledgerstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratagrades/internal/testutil"
)

func TestStore_CreateAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	now := time.Now().UTC().Truncate(time.Millisecond)

	entries := []Entry{
		{RequestID: "a", Student: "s1", StatusCode: 200, StartedAt: now.Add(-2 * time.Minute)},
		{RequestID: "b", Student: "s1", StatusCode: 400, ErrorClass: "validation", StartedAt: now.Add(-time.Minute)},
		{RequestID: "c", Student: "s2", StatusCode: 500, ErrorClass: "internal", StartedAt: now},
	}
	for _, e := range entries {
		if err := s.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := s.RecentForStudent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentForStudent() error = %v", err)
	}
	if len(got) != 2 || got[0].RequestID != "b" || got[1].RequestID != "a" {
		t.Errorf("RecentForStudent() = %+v, want [b a]", got)
	}

	errs, err := s.RecentErrors(ctx, 10)
	if err != nil {
		t.Fatalf("RecentErrors() error = %v", err)
	}
	if len(errs) != 2 || errs[0].RequestID != "c" {
		t.Errorf("RecentErrors() = %+v, want [c b]", errs)
	}
}

func TestStore_DeleteOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := New(db)
	now := time.Now().UTC()
	_ = s.Create(ctx, Entry{RequestID: "old", StartedAt: now.Add(-48 * time.Hour)})
	_ = s.Create(ctx, Entry{RequestID: "new", StartedAt: now})

	n, err := s.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}
