package store

import "testing"

func TestCanonicalJSON_Deterministic(t *testing.T) {
	a := Filter{"city": "Berlin", "active": true, "name": "Alpha"}
	b := Filter{"name": "Alpha", "active": true, "city": "Berlin"}

	if a.CanonicalJSON() != b.CanonicalJSON() {
		t.Errorf("Logically identical filters rendered differently:\n%s\n%s",
			a.CanonicalJSON(), b.CanonicalJSON())
	}
}

func TestCanonicalJSON_SortedKeys(t *testing.T) {
	f := Filter{"zeta": 1, "alpha": 2}

	got := f.CanonicalJSON()
	expected := `{"alpha":2,"zeta":1}`
	if got != expected {
		t.Errorf("CanonicalJSON() = %q, want %q", got, expected)
	}
}

func TestCanonicalJSON_Empty(t *testing.T) {
	if got := (Filter{}).CanonicalJSON(); got != "{}" {
		t.Errorf("Empty filter should render as {}, got %q", got)
	}
	if got := Filter(nil).CanonicalJSON(); got != "{}" {
		t.Errorf("Nil filter should render as {}, got %q", got)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("Empty filter should report empty")
	}
	if (Filter{"a": 1}).IsEmpty() {
		t.Error("Non-empty filter should not report empty")
	}
}
