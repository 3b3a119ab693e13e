package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/events", "/events"},
		{"/events/abc-123", "/events/{id}"},
		{"/events/abc-123/join", "/events/{id}/join"},
		{"/events/abc-123/leave", "/events/{id}/leave"},
		{"/events/abc-123/ics", "/events/{id}/ics"},
		{"/series", "/series"},
		{"/series/abc-123", "/series/{id}"},
		{"/series/abc-123/duration", "/series/{id}/duration"},
		{"/series/abc-123/ics", "/series/{id}/ics"},
		{"/series/abc-123/ws", "/series/{id}/ws"},
		{"/series/abc-123/events/ev-9", "/series/{id}/events/{eventId}"},
		{"/profiles", "/profiles"},
		{"/profiles/user-1", "/profiles/{id}"},
		{"/locations/search", "/locations/search"},
		{"/health", "/health"},
		{"/unknown/route", "/unknown/route"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/events/abc-123/join", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["path"] == "/events/{id}/join" && labels["status"] == "201" {
				found = true
			}
			if labels["path"] == "/events/abc-123/join" {
				t.Error("raw path leaked into metric labels")
			}
		}
	}
	if !found {
		t.Error("no http_requests_total sample for normalized path and status 201")
	}
}
