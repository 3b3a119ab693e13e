package event

import (
	"context"
	"errors"
	"sync"
)

// Repository errors.
var (
	// ErrNotFound is returned when an event does not exist in the store.
	ErrNotFound = errors.New("event not found")

	// ErrDuplicateID is returned when inserting an event whose ID already exists.
	ErrDuplicateID = errors.New("event id already exists")
)

// Filter selects a subset of events. Zero-value fields are ignored.
type Filter struct {
	// SerieID selects events belonging to the given serie.
	SerieID string

	// OwnerID selects events owned by the given user.
	OwnerID string

	// ParticipantID selects events the given user has joined.
	ParticipantID string

	// Visibility selects events with the given visibility.
	Visibility Visibility
}

// Matches reports whether e satisfies every set field of the filter.
func (f Filter) Matches(e *Event) bool {
	if f.SerieID != "" && (e.SerieID == nil || *e.SerieID != f.SerieID) {
		return false
	}
	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}
	if f.ParticipantID != "" && !e.HasParticipant(f.ParticipantID) {
		return false
	}
	if f.Visibility != "" && e.Visibility != f.Visibility {
		return false
	}
	return true
}

// Repository defines event data operations. Implementations must never hand
// out references to their stored records; callers receive copies.
type Repository interface {
	// Insert stores a new event. Returns ErrDuplicateID if the ID is taken.
	Insert(ctx context.Context, e *Event) error

	// GetByID retrieves an event by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*Event, error)

	// Update overwrites an existing event. Returns ErrNotFound if absent.
	Update(ctx context.Context, e *Event) error

	// Delete removes an event by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns all events matching the filter, in unspecified order.
	List(ctx context.Context, f Filter) ([]*Event, error)
}

// InMemoryRepository implements Repository with in-memory storage.
// Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{events: make(map[string]*Event)}
}

// Insert stores a new event.
func (r *InMemoryRepository) Insert(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[e.ID]; exists {
		return ErrDuplicateID
	}
	r.events[e.ID] = copyEvent(e)
	return nil
}

// GetByID retrieves an event by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(e), nil
}

// Update overwrites an existing event.
func (r *InMemoryRepository) Update(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[e.ID]; !ok {
		return ErrNotFound
	}
	r.events[e.ID] = copyEvent(e)
	return nil
}

// Delete removes an event by ID.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return ErrNotFound
	}
	delete(r.events, id)
	return nil
}

// List returns all events matching the filter.
func (r *InMemoryRepository) List(ctx context.Context, f Filter) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Event, 0)
	for _, e := range r.events {
		if f.Matches(e) {
			matched = append(matched, copyEvent(e))
		}
	}
	return matched, nil
}

// copyEvent creates a deep copy of an Event to prevent external mutation.
func copyEvent(e *Event) *Event {
	if e == nil {
		return nil
	}
	copied := *e
	if e.Location != nil {
		loc := *e.Location
		copied.Location = &loc
	}
	if e.SerieID != nil {
		sid := *e.SerieID
		copied.SerieID = &sid
	}
	copied.Participants = append([]string(nil), e.Participants...)
	return &copied
}
