package group

import (
	"context"
	"errors"
	"testing"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

func TestInMemoryReader_GetByID(t *testing.T) {
	r := NewInMemoryReader()
	r.Put(&Group{
		ID:         "group-1",
		Name:       "Running club",
		Capacity:   25,
		Visibility: event.VisibilityPrivate,
		OwnerID:    "owner-1",
		MemberIDs:  []string{"user-1", "user-2"},
	})

	g, err := r.GetByID(context.Background(), "group-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if g.Name != "Running club" || g.Capacity != 25 || len(g.MemberIDs) != 2 {
		t.Errorf("got %+v", g)
	}

	if _, err := r.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing group error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryReader_ReturnsCopies(t *testing.T) {
	r := NewInMemoryReader()
	seed := &Group{ID: "group-1", Name: "Club", MemberIDs: []string{"user-1"}}
	r.Put(seed)

	seed.MemberIDs[0] = "mutated"
	g, err := r.GetByID(context.Background(), "group-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if g.MemberIDs[0] != "user-1" {
		t.Error("store aliased the seeded group")
	}

	g.MemberIDs = append(g.MemberIDs, "user-2")
	again, _ := r.GetByID(context.Background(), "group-1")
	if len(again.MemberIDs) != 1 {
		t.Error("returned group aliased the store")
	}
}
