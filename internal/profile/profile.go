// Package profile provides the user profile model and repositories.
package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Repository errors.
var (
	// ErrNotFound is returned when a profile does not exist in the store.
	ErrNotFound = errors.New("profile not found")

	// ErrDuplicateID is returned when inserting a profile whose ID exists.
	ErrDuplicateID = errors.New("profile id already exists")
)

// Profile is a user's public profile.
type Profile struct {
	ID                 string           `json:"id" bson:"_id"`
	Handle             string           `json:"handle" bson:"handle"`
	Name               string           `json:"name" bson:"name"`
	Bio                string           `json:"bio,omitempty" bson:"bio,omitempty"`
	FavoriteCategories []event.Category `json:"favorite_categories,omitempty" bson:"favorite_categories,omitempty"`
}

// Repository defines profile data operations.
type Repository interface {
	// Insert stores a new profile. Returns ErrDuplicateID if the ID is taken.
	Insert(ctx context.Context, p *Profile) error

	// GetByID retrieves a profile by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// Update overwrites an existing profile. Returns ErrNotFound if absent.
	Update(ctx context.Context, p *Profile) error

	// Delete removes a profile by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository implements Repository with in-memory storage.
// Used for testing and development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{profiles: make(map[string]*Profile)}
}

// Insert stores a new profile.
func (r *InMemoryRepository) Insert(ctx context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.ID]; exists {
		return ErrDuplicateID
	}
	r.profiles[p.ID] = copyProfile(p)
	return nil
}

// GetByID retrieves a profile by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProfile(p), nil
}

// Update overwrites an existing profile.
func (r *InMemoryRepository) Update(ctx context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	r.profiles[p.ID] = copyProfile(p)
	return nil
}

// Delete removes a profile by ID.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	copied := *p
	copied.FavoriteCategories = append([]event.Category(nil), p.FavoriteCategories...)
	return &copied
}
