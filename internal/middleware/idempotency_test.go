package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/idempotency"
)

var idempotentTestRoutes = map[string]bool{
	"/events":               true,
	"/series":               true,
	"/series/{id}/duration": true,
}

func idempotencyHandler(repo idempotency.Repository, invocations *int) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*invocations++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ev-1"}`))
	})
	return Idempotency(repo, idempotentTestRoutes, nil)(inner)
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()
	invocations := 0
	handler := idempotencyHandler(repo, &invocations)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("{}"))
		req.Header.Set(IdempotencyKeyHeader, "create-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := do()
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status = %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if invocations != 1 {
		t.Errorf("handler invoked %d times, want 1", invocations)
	}
}

func TestIdempotency_RequiresKeyOnConfiguredRoutes(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()
	invocations := 0
	handler := idempotencyHandler(repo, &invocations)

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing_idempotency_key") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if invocations != 0 {
		t.Error("handler ran without an idempotency key")
	}
}

func TestIdempotency_RejectsOversizedKey(t *testing.T) {
	handler := idempotencyHandler(idempotency.NewInMemoryRepository(), new(int))

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set(IdempotencyKeyHeader, strings.Repeat("x", idempotency.MaxKeyLength+1))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "idempotency_key_too_long") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestIdempotency_SkipsUnconfiguredRoutesAndMethods(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()
	invocations := 0
	handler := idempotencyHandler(repo, &invocations)

	// GET on a configured route passes through without a key.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	if rec.Code != http.StatusCreated || invocations != 1 {
		t.Errorf("GET passthrough: status=%d invocations=%d", rec.Code, invocations)
	}

	// POST on an unconfigured route passes through too.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/profiles", nil))
	if rec.Code != http.StatusCreated || invocations != 2 {
		t.Errorf("unconfigured route: status=%d invocations=%d", rec.Code, invocations)
	}
}

// Matching happens on the normalized route, so the cascade endpoint with a
// live serie ID is covered.
func TestIdempotency_MatchesNormalizedDurationRoute(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()
	handler := idempotencyHandler(repo, new(int))

	req := httptest.NewRequest(http.MethodPatch, "/series/serie-1/duration", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing key on normalized route", rec.Code)
	}
}

func TestIdempotency_DoesNotCacheErrors(t *testing.T) {
	repo := idempotency.NewInMemoryRepository()
	invocations := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invocations++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"validation_error","message":"One or more fields are invalid"}}`))
	})
	handler := Idempotency(repo, idempotentTestRoutes, nil)(inner)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.Header.Set(IdempotencyKeyHeader, "create-err")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if invocations != 2 {
		t.Errorf("handler invoked %d times, want 2 (error responses are not cached)", invocations)
	}
	if _, err := repo.Get(context.Background(), "create-err"); !errors.Is(err, idempotency.ErrKeyNotFound) {
		t.Error("error response was cached")
	}
}

type failingIdempotencyRepo struct{}

func (failingIdempotencyRepo) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	return nil, errors.New("store down")
}

func (failingIdempotencyRepo) Store(ctx context.Context, record *idempotency.Record) error {
	return errors.New("store down")
}

func (failingIdempotencyRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

// A broken store degrades to no replay protection instead of failing writes.
func TestIdempotency_FailOpenOnStoreErrors(t *testing.T) {
	invocations := 0
	handler := idempotencyHandler(failingIdempotencyRepo{}, &invocations)

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set(IdempotencyKeyHeader, "create-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if invocations != 1 {
		t.Errorf("handler invoked %d times, want 1", invocations)
	}
}
