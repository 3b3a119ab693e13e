package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func completedRecord(key string) *Record {
	body := `{"id":"ev-1"}`
	return &Record{
		Key:                key,
		Method:             "POST",
		Route:              "/events",
		Status:             StatusCompleted,
		ResponseBody:       body,
		ResponseHash:       ComputeResponseHash(body),
		ResponseStatusCode: 201,
	}
}

func TestInMemoryRepository_StoreAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Store(ctx, completedRecord("key-1")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Store(ctx, completedRecord("key-1")); !errors.Is(err, ErrKeyExists) {
		t.Errorf("duplicate store = %v, want ErrKeyExists", err)
	}
	if err := repo.Store(ctx, completedRecord("")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key store = %v, want ErrInvalidKey", err)
	}

	got, err := repo.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Route != "/events" || got.ResponseStatusCode != 201 {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on store")
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestInMemoryRepository_DeleteOlderThan(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	old := completedRecord("old-key")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if err := repo.Store(ctx, old); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Store(ctx, completedRecord("fresh-key")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	deleted, err := repo.DeleteOlderThan(ctx, DefaultExpiry)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.Get(ctx, "old-key"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("old record survived cleanup")
	}
	if _, err := repo.Get(ctx, "fresh-key"); err != nil {
		t.Errorf("fresh record removed: %v", err)
	}
}

func TestCleanupOldRecords(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	old := completedRecord("old-key")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	if err := repo.Store(ctx, old); err != nil {
		t.Fatalf("Store: %v", err)
	}

	deleted, err := CleanupOldRecords(ctx, repo, DefaultExpiry)
	if err != nil {
		t.Fatalf("CleanupOldRecords: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
