package testutil

import (
	"context"
	"testing"

	"github.com/adrian-moloca/clinicache/pkg/store"
)

func TestMemCollection_FindManyOrdering(t *testing.T) {
	coll := NewMemCollection(Organizations(5)...)

	rows, err := coll.FindMany(context.Background(), store.Filter{}, store.FindOptions{})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}

	// Fixtures are newest-last, results must be newest-first.
	if rows[0].ID != "org-004" || rows[4].ID != "org-000" {
		t.Errorf("Rows out of order: first=%s last=%s", rows[0].ID, rows[4].ID)
	}
}

func TestMemCollection_CursorClause(t *testing.T) {
	coll := NewMemCollection(Organizations(5)...)
	all, _ := coll.FindMany(context.Background(), store.Filter{}, store.FindOptions{})

	pivot := all[1]
	rows, err := coll.FindMany(context.Background(), store.Filter{}, store.FindOptions{
		Before: &store.CursorClause{SortValue: pivot.RecordSortValue(), ID: pivot.RecordID()},
	})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows strictly after the pivot, got %d", len(rows))
	}
	if rows[0].ID != all[2].ID {
		t.Errorf("Scan resumed at %s, expected %s", rows[0].ID, all[2].ID)
	}
}

func TestMemCollection_FilterMatching(t *testing.T) {
	orgs := Organizations(3)
	orgs[1].Active = false
	coll := NewMemCollection(orgs...)

	n, err := coll.Count(context.Background(), store.Filter{"active": false})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 inactive org, got %d", n)
	}

	rows, err := coll.FindMany(context.Background(), store.Filter{"name": orgs[2].Name}, store.FindOptions{})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != orgs[2].ID {
		t.Errorf("Filter by name failed: %v", rows)
	}
}
