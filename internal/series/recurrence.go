package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Recurrence expansion limits. The cap guards against unbounded rules
// (FREQ=DAILY with no COUNT or UNTIL) flooding the store with member events.
const (
	DefaultMaxOccurrences = 52
	maxExpansionWindow    = 2 * 366 * 24 * time.Hour
)

// ErrEmptyRecurrence is returned when an empty rule string is expanded.
var ErrEmptyRecurrence = errors.New("recurrence rule is empty")

// ExpandRecurrence expands an RFC 5545 RRULE into concrete start instants for
// serie member events, anchored at the serie start. The anchor itself is
// always the first occurrence. Expansion stops at maxOccurrences (or
// DefaultMaxOccurrences when zero) and never extends past two years from the
// anchor.
func ExpandRecurrence(anchor time.Time, rule string, maxOccurrences int) ([]time.Time, error) {
	if rule == "" {
		return nil, ErrEmptyRecurrence
	}
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule: %w", err)
	}
	r.DTStart(anchor.UTC())

	windowEnd := anchor.Add(maxExpansionWindow)
	occurrences := r.Between(anchor.UTC(), windowEnd, true)

	if len(occurrences) > maxOccurrences {
		occurrences = occurrences[:maxOccurrences]
	}

	// Some rules exclude their own DTSTART; the serie anchor is always the
	// first event regardless.
	if len(occurrences) == 0 || !occurrences[0].Equal(anchor.UTC()) {
		occurrences = append([]time.Time{anchor.UTC()}, occurrences...)
		if len(occurrences) > maxOccurrences {
			occurrences = occurrences[:maxOccurrences]
		}
	}

	starts := make([]time.Time, len(occurrences))
	for i, occ := range occurrences {
		starts[i] = occ.UTC()
	}
	return starts, nil
}
