// Package event provides the event model and repositories for scheduled
// occurrences, standalone or belonging to a serie.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category classifies an event.
type Category string

// Supported event categories.
const (
	CategorySports   Category = "SPORTS"
	CategoryActivity Category = "ACTIVITY"
	CategorySocial   Category = "SOCIAL"
)

// Categories lists all supported categories in display order.
var Categories = []Category{CategorySports, CategoryActivity, CategorySocial}

// Visibility controls who can discover an event.
type Visibility string

// Supported visibility values.
const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Model validation errors.
var (
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidCapacity   = errors.New("capacity below participant count")
	ErrZeroStart         = errors.New("start timestamp is not set")
	ErrEventFull         = errors.New("event is at capacity")
	ErrAlreadyJoined     = errors.New("user already joined")
	ErrNotParticipant    = errors.New("user is not a participant")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownVisibility = errors.New("unknown visibility")
)

// Location is a resolved geographic place. Name alone (free text) is never
// enough; a location must carry coordinates from the lookup service.
type Location struct {
	Name    string  `json:"name" bson:"name"`
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
	Geohash string  `json:"geohash,omitempty" bson:"geohash,omitempty"`
}

// Event represents a scheduled occurrence. Start is always UTC-normalized.
// SerieID back-references the owning serie when the event was created as a
// serie member.
type Event struct {
	ID               string     `json:"id" bson:"_id"`
	Category         Category   `json:"category" bson:"category"`
	Title            string     `json:"title" bson:"title"`
	Description      string     `json:"description" bson:"description"`
	Location         *Location  `json:"location,omitempty" bson:"location,omitempty"`
	Start            time.Time  `json:"start" bson:"start"`
	DurationMinutes  int        `json:"duration_minutes" bson:"duration_minutes"`
	Capacity         int        `json:"capacity" bson:"capacity"`
	Visibility       Visibility `json:"visibility" bson:"visibility"`
	OwnerID          string     `json:"owner_id" bson:"owner_id"`
	Participants     []string   `json:"participants" bson:"participants"`
	ParticipantCount int        `json:"participant_count" bson:"participant_count"`
	SerieID          *string    `json:"serie_id,omitempty" bson:"serie_id,omitempty"`
}

// End returns the instant at which the event finishes.
func (e *Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Validate checks the structural invariants: positive duration, capacity at
// least the participant count, and a set start timestamp.
func (e *Event) Validate() error {
	if e.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if e.Capacity < len(e.Participants) {
		return fmt.Errorf("%w: capacity %d, participants %d", ErrInvalidCapacity, e.Capacity, len(e.Participants))
	}
	if e.Start.IsZero() {
		return ErrZeroStart
	}
	return nil
}

// NormalizeStart converts the start timestamp to UTC. Persisted events always
// store UTC instants; display conversion is the client's concern.
func (e *Event) NormalizeStart() {
	e.Start = e.Start.UTC()
}

// HasParticipant reports whether userID is in the participant set.
func (e *Event) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Join adds userID to the participant set, enforcing capacity and uniqueness.
func (e *Event) Join(userID string) error {
	if e.HasParticipant(userID) {
		return ErrAlreadyJoined
	}
	if len(e.Participants) >= e.Capacity {
		return ErrEventFull
	}
	e.Participants = append(e.Participants, userID)
	e.ParticipantCount = len(e.Participants)
	return nil
}

// Leave removes userID from the participant set.
func (e *Event) Leave(userID string) error {
	for i, p := range e.Participants {
		if p == userID {
			e.Participants = append(e.Participants[:i], e.Participants[i+1:]...)
			e.ParticipantCount = len(e.Participants)
			return nil
		}
	}
	return ErrNotParticipant
}

// ParseCategory parses a category string case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategorySports:
		return CategorySports, nil
	case CategoryActivity:
		return CategoryActivity, nil
	case CategorySocial:
		return CategorySocial, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ParseVisibility parses a visibility string case-insensitively.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(strings.ToUpper(strings.TrimSpace(s))) {
	case VisibilityPublic:
		return VisibilityPublic, nil
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVisibility, s)
}
