package series

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

func testSerie(id, ownerID string) *Serie {
	return &Serie{
		ID:         id,
		Title:      "Weekly run",
		OwnerID:    ownerID,
		Start:      time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		Capacity:   10,
		Visibility: event.VisibilityPublic,
	}
}

func TestInMemoryRepository_InsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	s := testSerie("serie-1", "owner-1")
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, s); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateID", err)
	}

	got, err := repo.GetByID(ctx, "serie-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Weekly run" || got.OwnerID != "owner-1" {
		t.Errorf("got %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	s := testSerie("serie-1", "owner-1")
	s.EventIDs = []string{"ev-1"}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Mutating what the caller holds must not leak into the store.
	s.Title = "Changed"
	s.EventIDs[0] = "ev-mutated"

	got, err := repo.GetByID(ctx, "serie-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Weekly run" || got.EventIDs[0] != "ev-1" {
		t.Errorf("stored serie aliased caller's struct: %+v", got)
	}

	// Mutating a returned copy must not change later reads.
	got.AddEvent("ev-2")
	again, _ := repo.GetByID(ctx, "serie-1")
	if len(again.EventIDs) != 1 {
		t.Errorf("returned serie aliased the store: %v", again.EventIDs)
	}
}

func TestInMemoryRepository_Update(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Update(ctx, testSerie("serie-1", "owner-1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing serie = %v, want ErrNotFound", err)
	}

	s := testSerie("serie-1", "owner-1")
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Title = "Evening run"
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByID(ctx, "serie-1")
	if got.Title != "Evening run" {
		t.Errorf("title = %q after update", got.Title)
	}
}

func TestInMemoryRepository_DeleteRefusesWithMembers(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	s := testSerie("serie-1", "owner-1")
	s.AddEvent("ev-1")
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := repo.Delete(ctx, "serie-1"); !errors.Is(err, ErrHasMemberEvents) {
		t.Errorf("delete with members = %v, want ErrHasMemberEvents", err)
	}

	s.RemoveEvent("ev-1")
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.Delete(ctx, "serie-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "serie-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "serie-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestInMemoryRepository_ListByOwner(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, s := range []*Serie{
		testSerie("serie-1", "owner-1"),
		testSerie("serie-2", "owner-1"),
		testSerie("serie-3", "owner-2"),
	} {
		if err := repo.Insert(ctx, s); err != nil {
			t.Fatalf("Insert %s: %v", s.ID, err)
		}
	}

	list, err := repo.ListByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("owner-1 has %d series, want 2", len(list))
	}

	empty, err := repo.ListByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown owner has %d series, want 0", len(empty))
	}
}
