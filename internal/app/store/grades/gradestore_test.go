package gradestore

import (
	"testing"

	"github.com/dalemusser/stratagrades/internal/domain/models"
	"github.com/dalemusser/stratagrades/internal/testutil"
)

func ptr(f float64) *float64 { return &f }

func TestStore_ReplaceForStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := []models.Grade{
		{Subject: "Math", Title: "Old quiz", Percent: 50, Date: "2024-01-01"},
	}
	if _, err := store.ReplaceForStudent(ctx, "s1", "sync-1", first); err != nil {
		t.Fatalf("ReplaceForStudent() error = %v", err)
	}

	second := []models.Grade{
		{Subject: "Math", Title: "Quiz 1", Percent: 80, Date: "2024-01-01"},
		{Subject: "Art", Title: "Sketch", Percent: 92, Date: "2024-02-01", Score: ptr(46), MaxPoints: ptr(50)},
	}
	n, err := store.ReplaceForStudent(ctx, "s1", "sync-2", second)
	if err != nil {
		t.Fatalf("ReplaceForStudent() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	count, err := store.CountForStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("CountForStudent() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountForStudent() = %d, want 2", count)
	}

	recs, err := store.ListForStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	for _, r := range recs {
		if r.SyncID != "sync-2" {
			t.Errorf("SyncID = %q, want sync-2", r.SyncID)
		}
	}
}

func TestStore_ReplaceForStudent_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.ReplaceForStudent(ctx, "s1", "a", []models.Grade{{Subject: "Math", Title: "Q", Percent: 1}}); err != nil {
		t.Fatalf("ReplaceForStudent() error = %v", err)
	}
	n, err := store.ReplaceForStudent(ctx, "s1", "b", nil)
	if err != nil {
		t.Fatalf("ReplaceForStudent(nil) error = %v", err)
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0", n)
	}
	if count, _ := store.CountForStudent(ctx, "s1"); count != 0 {
		t.Errorf("CountForStudent() = %d, want 0", count)
	}
}

func TestStore_ListForStudent_Order(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	grades := []models.Grade{
		{Subject: "Math", Title: "A", Percent: 70, Date: "2024-01-01"},
		{Subject: "Math", Title: "B", Percent: 80, Date: "2024-03-01"},
		{Subject: "Math", Title: "C", Percent: 90, Date: "2024-01-01"},
		{Subject: "Math", Title: "D", Percent: 60},
	}
	if _, err := store.ReplaceForStudent(ctx, "s1", "x", grades); err != nil {
		t.Fatalf("ReplaceForStudent() error = %v", err)
	}
	if _, err := store.ReplaceForStudent(ctx, "other", "y", grades[:1]); err != nil {
		t.Fatalf("ReplaceForStudent() error = %v", err)
	}

	recs, err := store.ListForStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	var titles string
	for _, r := range recs {
		titles += r.Title
	}
	if titles != "BACD" {
		t.Errorf("order = %q, want BACD", titles)
	}

	g := recs[0].Grade()
	if g.Subject != "Math" || g.Percent != 80 || g.Date != "2024-03-01" {
		t.Errorf("Grade() = %+v", g)
	}
}

func TestStore_ListForStudent_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	recs, err := store.ListForStudent(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("len = %d, want 0", len(recs))
	}
}
