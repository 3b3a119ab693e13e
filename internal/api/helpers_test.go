package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
)

// testNow is the fixed clock for handler tests: 1 January 2026, 12:00 UTC.
var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// jsonRequest builds a request with a JSON body and an authenticated user.
// pathValues are alternating name/value pairs for r.PathValue.
func jsonRequest(t *testing.T, method, target, userID string, body any, pathValues ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

// decodeErrorResponse decodes the standard error envelope.
func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp.Error
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) event.Event {
	t.Helper()
	var e event.Event
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode event: %v\nbody: %s", err, rec.Body.String())
	}
	return e
}

// validFormRequest is a creation payload that passes every validator against
// the fixed clock.
func validFormRequest() EventFormRequest {
	return EventFormRequest{
		Category:    "SPORTS",
		Title:       "Morning run",
		Description: "Easy 5k along the lake",
		Location:    &event.Location{Name: "Ouchy, Lausanne", Lat: 46.508, Lng: 6.626},
		Date:        "25/12/2026",
		Time:        "09:00",
		Duration:    "60",
		Capacity:    "10",
		Visibility:  "PUBLIC",
	}
}
