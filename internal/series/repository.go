package series

import (
	"context"
	"sync"
)

// Repository defines serie data operations. Implementations return copies,
// never references to stored records.
type Repository interface {
	// Insert stores a new serie. Returns ErrDuplicateID if the ID is taken.
	Insert(ctx context.Context, s *Serie) error

	// GetByID retrieves a serie by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*Serie, error)

	// Update overwrites an existing serie. Returns ErrNotFound if absent.
	Update(ctx context.Context, s *Serie) error

	// Delete removes a serie by ID. Returns ErrNotFound if absent and
	// ErrHasMemberEvents if the serie still owns events.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns all series owned by the given user.
	ListByOwner(ctx context.Context, ownerID string) ([]*Serie, error)
}

// InMemoryRepository implements Repository with in-memory storage.
// Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	series map[string]*Serie
}

// NewInMemoryRepository creates a new in-memory serie repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{series: make(map[string]*Serie)}
}

// Insert stores a new serie.
func (r *InMemoryRepository) Insert(ctx context.Context, s *Serie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.series[s.ID]; exists {
		return ErrDuplicateID
	}
	r.series[s.ID] = copySerie(s)
	return nil
}

// GetByID retrieves a serie by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Serie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.series[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySerie(s), nil
}

// Update overwrites an existing serie.
func (r *InMemoryRepository) Update(ctx context.Context, s *Serie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.series[s.ID]; !ok {
		return ErrNotFound
	}
	r.series[s.ID] = copySerie(s)
	return nil
}

// Delete removes a serie by ID. Refuses while member events remain.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[id]
	if !ok {
		return ErrNotFound
	}
	if len(s.EventIDs) > 0 {
		return ErrHasMemberEvents
	}
	delete(r.series, id)
	return nil
}

// ListByOwner returns all series owned by the given user.
func (r *InMemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Serie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Serie, 0)
	for _, s := range r.series {
		if s.OwnerID == ownerID {
			matched = append(matched, copySerie(s))
		}
	}
	return matched, nil
}

// copySerie creates a deep copy of a Serie to prevent external mutation.
func copySerie(s *Serie) *Serie {
	if s == nil {
		return nil
	}
	copied := *s
	if s.GroupID != nil {
		gid := *s.GroupID
		copied.GroupID = &gid
	}
	copied.EventIDs = append([]string(nil), s.EventIDs...)
	return &copied
}
