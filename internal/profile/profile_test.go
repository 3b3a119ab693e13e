package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

func testProfile() *Profile {
	return &Profile{
		ID:                 "user-1",
		Handle:             "runner42",
		Name:               "Sam",
		Bio:                "Weekend trail runner",
		FavoriteCategories: []event.Category{event.CategorySports},
	}
}

func TestInMemoryRepository_CRUD(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	p := testProfile()
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, p); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate insert = %v, want ErrDuplicateID", err)
	}

	got, err := repo.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Handle != "runner42" {
		t.Errorf("handle = %q", got.Handle)
	}

	got.Bio = "Road cyclist now"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := repo.GetByID(ctx, "user-1")
	if again.Bio != "Road cyclist now" {
		t.Errorf("bio after update = %q", again.Bio)
	}

	if err := repo.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, p); !errors.Is(err, ErrNotFound) {
		t.Errorf("update after delete = %v, want ErrNotFound", err)
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	p := testProfile()
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	p.FavoriteCategories[0] = event.CategorySocial
	got, _ := repo.GetByID(ctx, "user-1")
	if got.FavoriteCategories[0] != event.CategorySports {
		t.Error("store aliased the caller's profile")
	}
}
