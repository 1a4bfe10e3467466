package entity

import (
	"testing"
	"time"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned an empty id")
		}
		if seen[id] {
			t.Fatalf("NewID returned a duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestRecordSortValue(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	org := Organization{ID: "o1", CreatedAt: created}
	clinic := Clinic{ID: "c1", CreatedAt: created}
	assignment := Assignment{ID: "a1", CreatedAt: created}

	want := created.UnixMilli()
	if org.RecordSortValue() != want || clinic.RecordSortValue() != want || assignment.RecordSortValue() != want {
		t.Error("All resources sort by creation time in unix milliseconds")
	}

	if org.RecordID() != "o1" || clinic.RecordID() != "c1" || assignment.RecordID() != "a1" {
		t.Error("RecordID must return the entity id")
	}
}
