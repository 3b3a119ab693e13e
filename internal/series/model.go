// Package series provides the serie model, repositories, and the schedule
// coordinator that keeps member event start times consistent when durations
// change.
package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Model errors.
var (
	// ErrNotFound is returned when a serie does not exist in the store.
	ErrNotFound = errors.New("serie not found")

	// ErrDuplicateID is returned when inserting a serie whose ID already exists.
	ErrDuplicateID = errors.New("serie id already exists")

	// ErrHasMemberEvents is returned when deleting a serie that still owns
	// scheduled events. Members must be removed first to avoid orphaning them.
	ErrHasMemberEvents = errors.New("serie still has member events")

	// ErrGroupFieldFrozen is returned when editing capacity or visibility on a
	// serie whose configuration is inherited from a group.
	ErrGroupFieldFrozen = errors.New("capacity and visibility are inherited from the group")
)

// Serie is a named, ordered group of events sharing an owner and scheduling
// configuration. When GroupID is set, capacity and visibility are inherited
// from the group and frozen.
type Serie struct {
	ID          string           `json:"id" bson:"_id"`
	Title       string           `json:"title" bson:"title"`
	Description string           `json:"description" bson:"description"`
	Start       time.Time        `json:"start" bson:"start"`
	Capacity    int              `json:"capacity" bson:"capacity"`
	Visibility  event.Visibility `json:"visibility" bson:"visibility"`
	OwnerID     string           `json:"owner_id" bson:"owner_id"`
	GroupID     *string          `json:"group_id,omitempty" bson:"group_id,omitempty"`
	EventIDs    []string         `json:"event_ids" bson:"event_ids"`
}

// InheritsFromGroup reports whether capacity and visibility come from a group.
func (s *Serie) InheritsFromGroup() bool {
	return s.GroupID != nil && *s.GroupID != ""
}

// HasEvent reports whether eventID is a member of the serie.
func (s *Serie) HasEvent(eventID string) bool {
	for _, id := range s.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// AddEvent appends eventID to the member list if not already present.
func (s *Serie) AddEvent(eventID string) {
	if !s.HasEvent(eventID) {
		s.EventIDs = append(s.EventIDs, eventID)
	}
}

// RemoveEvent drops eventID from the member list.
func (s *Serie) RemoveEvent(eventID string) {
	for i, id := range s.EventIDs {
		if id == eventID {
			s.EventIDs = append(s.EventIDs[:i], s.EventIDs[i+1:]...)
			return
		}
	}
}

// InconsistentStateError reports a broken data relationship: a serie
// references a group that cannot be loaded. Surfaced distinctly from plain
// storage errors so callers can tell relational breakage from connectivity.
type InconsistentStateError struct {
	SerieID string
	GroupID string
	Err     error
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("serie %s references group %s that cannot be loaded: %v", e.SerieID, e.GroupID, e.Err)
}

func (e *InconsistentStateError) Unwrap() error { return e.Err }
