package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

type stubLookup struct {
	results []event.Location
}

func (s stubLookup) Search(ctx context.Context, query string) []event.Location {
	return s.results
}

func TestSearchLocations(t *testing.T) {
	h := NewLocationHandlers(stubLookup{results: []event.Location{
		{Name: "Ouchy, Lausanne", Lat: 46.508, Lng: 6.626},
	}})

	req := httptest.NewRequest(http.MethodGet, "/locations/search?q=ouchy", nil)
	rec := httptest.NewRecorder()
	h.SearchLocations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Locations []event.Location `json:"locations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Locations) != 1 || resp.Locations[0].Name != "Ouchy, Lausanne" {
		t.Errorf("locations = %+v", resp.Locations)
	}
}

func TestSearchLocationsEmptyQuery(t *testing.T) {
	h := NewLocationHandlers(stubLookup{})

	req := httptest.NewRequest(http.MethodGet, "/locations/search?q=%20%20", nil)
	rec := httptest.NewRecorder()
	h.SearchLocations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchLocationsUpstreamFailure(t *testing.T) {
	// A failed lookup returns nil; the handler still answers 200 with an
	// empty list.
	h := NewLocationHandlers(stubLookup{results: nil})

	req := httptest.NewRequest(http.MethodGet, "/locations/search?q=nowhere", nil)
	rec := httptest.NewRecorder()
	h.SearchLocations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["locations"]) != "[]" {
		t.Errorf("locations = %s, want []", resp["locations"])
	}
}
