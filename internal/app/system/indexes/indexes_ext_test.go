package indexes_test

import (
	"testing"

	"github.com/dalemusser/stratagrades/internal/app/system/indexes"
	"github.com/dalemusser/stratagrades/internal/testutil"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	// SetupTestDB already ran EnsureAll once.
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll() error = %v", err)
	}

	cur, err := db.Collection("grade_sync_states").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("Indexes().List() error = %v", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var idx struct {
			Name   string `bson:"name"`
			Unique bool   `bson:"unique"`
		}
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if idx.Name == "uniq_grade_sync_states_student" {
			found = true
			if !idx.Unique {
				t.Error("uniq_grade_sync_states_student should be unique")
			}
		}
	}
	if !found {
		t.Error("uniq_grade_sync_states_student index missing")
	}
}
