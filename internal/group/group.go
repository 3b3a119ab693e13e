// Package group provides read-only access to user groups. A group can own a
// serie, in which case its capacity and visibility override the serie's own
// defaults and its members seed the participant set.
package group

import (
	"context"
	"errors"
	"sync"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// ErrNotFound is returned when a group does not exist in the store.
var ErrNotFound = errors.New("group not found")

// Group is an external aggregate of users that can own a serie.
type Group struct {
	ID         string           `json:"id" bson:"_id"`
	Name       string           `json:"name" bson:"name"`
	Capacity   int              `json:"capacity" bson:"capacity"`
	Visibility event.Visibility `json:"visibility" bson:"visibility"`
	OwnerID    string           `json:"owner_id" bson:"owner_id"`
	MemberIDs  []string         `json:"member_ids" bson:"member_ids"`
}

// Reader provides read-only group access. Group writes belong to a different
// service; this module only consumes inherited configuration.
type Reader interface {
	// GetByID retrieves a group by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*Group, error)
}

// InMemoryReader implements Reader with in-memory storage.
// Used for testing and development.
type InMemoryReader struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewInMemoryReader creates an in-memory group reader.
func NewInMemoryReader() *InMemoryReader {
	return &InMemoryReader{groups: make(map[string]*Group)}
}

// Put seeds a group. Test and development helper.
func (r *InMemoryReader) Put(g *Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID] = copyGroup(g)
}

// GetByID retrieves a group by ID.
func (r *InMemoryReader) GetByID(ctx context.Context, id string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGroup(g), nil
}

func copyGroup(g *Group) *Group {
	if g == nil {
		return nil
	}
	copied := *g
	copied.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &copied
}
