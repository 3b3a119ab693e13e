package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

func TestExportEventICS(t *testing.T) {
	f := newSerieFixture()
	seedStoredEvent(t, f.events, &event.Event{
		ID: "ev-1", Category: event.CategorySports, Title: "Morning run",
		Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DurationMinutes: 60,
		Capacity: 5, Visibility: event.VisibilityPublic, OwnerID: "user-1",
	})
	h := NewExportHandlers(f.events, f.series, f.handlers)

	req := jsonRequest(t, http.MethodGet, "/events/ev-1/ics", "", nil, "id", "ev-1")
	rec := httptest.NewRecorder()
	h.ExportEventICS(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "event.ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "UID:ev-1@joinme", "SUMMARY:Morning run", "DTSTART:20260302T090000Z"} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
}

func TestExportEventICSNotFound(t *testing.T) {
	f := newSerieFixture()
	h := NewExportHandlers(f.events, f.series, f.handlers)

	req := jsonRequest(t, http.MethodGet, "/events/missing/ics", "", nil, "id", "missing")
	rec := httptest.NewRecorder()
	h.ExportEventICS(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExportSerieICS(t *testing.T) {
	f := newSerieFixture()
	f.seedSerieWithMembers(t, "serie-1", "user-1")
	h := NewExportHandlers(f.events, f.series, f.handlers)

	req := jsonRequest(t, http.MethodGet, "/series/serie-1/ics", "", nil, "id", "serie-1")
	rec := httptest.NewRecorder()
	h.ExportSerieICS(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "serie.ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("calendar has %d VEVENTs, want 3", got)
	}
	for _, id := range []string{"ev-1", "ev-2", "ev-3"} {
		if !strings.Contains(body, "UID:"+id+"@joinme") {
			t.Errorf("calendar missing member %s", id)
		}
	}
}
