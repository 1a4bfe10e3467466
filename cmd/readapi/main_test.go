package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adrian-moloca/clinicache/internal/testutil"
	"github.com/adrian-moloca/clinicache/pkg/cachestore"
	"github.com/adrian-moloca/clinicache/pkg/entity"
	"github.com/adrian-moloca/clinicache/pkg/logging"
	"github.com/adrian-moloca/clinicache/pkg/pagination"
	"github.com/adrian-moloca/clinicache/pkg/readcache"
	"github.com/adrian-moloca/clinicache/pkg/reader"
	"github.com/adrian-moloca/clinicache/pkg/stats"
)

func newTestReader(t *testing.T, n int) (*reader.Reader[entity.Organization], *readcache.Cache, *stats.Tracker) {
	t.Helper()

	backend := cachestore.NewMemoryBackend(0)
	cache := readcache.New(backend, readcache.DefaultTTLConfig())
	tracker := stats.NewTracker(backend, logging.NewLogger("stats"))

	rd, err := reader.New(entity.ResourceOrganization, testutil.NewMemCollection(testutil.Organizations(n)...), reader.Config{
		Cache:      cache,
		Tracker:    tracker,
		Pagination: pagination.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	return rd, cache, tracker
}

func TestHealthHandler(t *testing.T) {
	_, cache, tracker := newTestReader(t, 1)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(cache, tracker)(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body.Status != readcache.StatusHealthy {
		t.Errorf("Expected healthy status, got %q", body.Status)
	}
}

func TestListHandler_Offset(t *testing.T) {
	rd, _, _ := newTestReader(t, 25)

	req := httptest.NewRequest("GET", "/api/organizations?$limit=10&$offset=0", nil)
	w := httptest.NewRecorder()

	listHandler(rd, nil)(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var page pagination.OffsetPage[entity.Organization]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if len(page.Data) != 10 {
		t.Errorf("Expected 10 rows, got %d", len(page.Data))
	}
	if page.Meta.Total != 25 {
		t.Errorf("Expected total 25, got %d", page.Meta.Total)
	}
}

func TestListHandler_InvalidLimit(t *testing.T) {
	rd, _, _ := newTestReader(t, 5)

	req := httptest.NewRequest("GET", "/api/organizations?$limit=-3", nil)
	w := httptest.NewRecorder()

	listHandler(rd, nil)(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestListHandler_CursorMode(t *testing.T) {
	rd, _, _ := newTestReader(t, 15)

	req := httptest.NewRequest("GET", "/api/organizations?$limit=10&$cursor=", nil)
	w := httptest.NewRecorder()

	listHandler(rd, nil)(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var page pagination.CursorPage[entity.Organization]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if !page.Meta.HasMore {
		t.Error("Expected hasMore=true on the first page of 15 rows")
	}
	if page.Meta.NextCursor == "" {
		t.Error("Expected a next cursor")
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	rd, _, _ := newTestReader(t, 1)

	req := httptest.NewRequest("GET", "/api/organizations/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	getHandler(rd)(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Result().StatusCode)
	}
}

func TestGetHandler_Found(t *testing.T) {
	rd, _, _ := newTestReader(t, 3)

	req := httptest.NewRequest("GET", "/api/organizations/org-001", nil)
	req.SetPathValue("id", "org-001")
	w := httptest.NewRecorder()

	getHandler(rd)(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var org entity.Organization
	if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
		t.Fatalf("Failed to decode organization: %v", err)
	}
	if org.ID != "org-001" {
		t.Errorf("Expected org-001, got %q", org.ID)
	}
}
