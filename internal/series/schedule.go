package series

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// CheckpointStore records which events a cascade invocation has already
// shifted, keyed by the cascade identity. It makes a partially applied
// cascade safe to retry: already-shifted events are skipped on resume.
// Implementations may expire records; a lost checkpoint only costs a retry
// from scratch against events that were never shifted.
type CheckpointStore interface {
	// ShiftedEventIDs returns the event IDs already shifted under key.
	// A missing key yields an empty slice, not an error.
	ShiftedEventIDs(ctx context.Context, key string) ([]string, error)

	// MarkShifted records that eventID was shifted under key.
	MarkShifted(ctx context.Context, key, eventID string) error

	// Clear removes the checkpoint once the cascade completed.
	Clear(ctx context.Context, key string) error

	// SavePending records the durations of a cascade about to run. The
	// edited event is persisted with newDuration before the cascade, so a
	// retry cannot recover oldDuration from storage; it recovers it here.
	SavePending(ctx context.Context, serieID, eventID string, oldDuration, newDuration int) error

	// Pending returns the recorded durations for (serieID, eventID).
	// ok is false when no intent is recorded.
	Pending(ctx context.Context, serieID, eventID string) (oldDuration, newDuration int, ok bool, err error)

	// ClearPending removes the recorded intent once the cascade completed.
	ClearPending(ctx context.Context, serieID, eventID string) error
}

// CascadeError reports a cascade that stopped partway. Events at indexes
// below FailedIndex in the sorted follower order keep their shifted start
// times; there is no rollback. The checkpoint (when a store is configured)
// lets the same invocation be retried without double-shifting.
type CascadeError struct {
	SerieID     string
	EventID     string // the follower whose persist failed
	FailedIndex int    // index of the failed follower in sorted serie order
	Applied     int    // followers successfully shifted before the failure
	Err         error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade on serie %s stopped at event %s (index %d, %d applied, not rolled back): %v",
		e.SerieID, e.EventID, e.FailedIndex, e.Applied, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// Coordinator recomputes member event start times when one event's duration
// changes. It is stateless between calls; every invocation is a self-contained
// read-sort-shift-write pipeline over the event store.
type Coordinator struct {
	events      event.Repository
	checkpoints CheckpointStore // optional
	logger      *slog.Logger
}

// NewCoordinator creates a schedule coordinator. checkpoints may be nil, in
// which case a failed cascade is diagnosable via CascadeError but retries
// re-shift from the failure point only if the caller re-issues with the
// durations still differing.
func NewCoordinator(events event.Repository, checkpoints CheckpointStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{events: events, checkpoints: checkpoints, logger: logger}
}

// cascadeKey identifies one logical cascade invocation for checkpointing.
func cascadeKey(serieID, editedEventID string, oldDuration, newDuration int) string {
	return fmt.Sprintf("cascade:%s:%s:%d:%d", serieID, editedEventID, oldDuration, newDuration)
}

// BeginCascade records the cascade intent. Callers invoke it before
// persisting the edited event with its new duration; once that write lands,
// the intent is the only place the old duration survives for a retry.
func (c *Coordinator) BeginCascade(ctx context.Context, serieID, editedEventID string, oldDuration, newDuration int) error {
	if c.checkpoints == nil {
		return nil
	}
	if err := c.checkpoints.SavePending(ctx, serieID, editedEventID, oldDuration, newDuration); err != nil {
		return fmt.Errorf("record cascade intent for serie %s event %s: %w", serieID, editedEventID, err)
	}
	return nil
}

// ResumePending re-runs an interrupted cascade for the edited event when a
// recorded intent survives. resumed is false when there is nothing to
// resume. applied counts every follower shifted under the intent, including
// ones a checkpoint proved were shifted by the failed attempt.
func (c *Coordinator) ResumePending(ctx context.Context, serieID, editedEventID string) (shiftMinutes, applied int, resumed bool, err error) {
	if c.checkpoints == nil {
		return 0, 0, false, nil
	}
	oldDuration, newDuration, ok, err := c.checkpoints.Pending(ctx, serieID, editedEventID)
	if err != nil {
		c.logger.Warn("cascade intent read failed", "serie_id", serieID, "event_id", editedEventID, "error", err)
		return 0, 0, false, nil
	}
	if !ok {
		return 0, 0, false, nil
	}
	applied, err = c.RecalculateFollowingEvents(ctx, &Serie{ID: serieID}, editedEventID, oldDuration, newDuration)
	return newDuration - oldDuration, applied, true, err
}

// RecalculateFollowingEvents shifts the start of every serie event that
// chronologically follows the edited one by (newDuration-oldDuration)
// minutes, preserving relative gaps, and persists each shifted event in
// sorted order. The edited event itself must already carry newDuration; it is
// never touched here. Returns the number of followers shifted, counting ones
// a checkpoint proved were shifted by an earlier attempt.
//
// Members are ordered by start time ascending; two events sharing a start
// are ordered by event ID so the cascade is deterministic. A zero delta, an
// edited event absent from the loaded members, or an edited event that is
// last all succeed silently with zero writes.
func (c *Coordinator) RecalculateFollowingEvents(ctx context.Context, serie *Serie, editedEventID string, oldDuration, newDuration int) (int, error) {
	if oldDuration <= 0 || newDuration <= 0 {
		return 0, fmt.Errorf("durations must be positive, got old=%d new=%d", oldDuration, newDuration)
	}
	shift := time.Duration(newDuration-oldDuration) * time.Minute
	if shift == 0 {
		return 0, nil
	}

	members, err := c.events.List(ctx, event.Filter{SerieID: serie.ID})
	if err != nil {
		return 0, fmt.Errorf("load serie %s events: %w", serie.ID, err)
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].Start.Equal(members[j].Start) {
			return members[i].ID < members[j].ID
		}
		return members[i].Start.Before(members[j].Start)
	})

	editedIdx := -1
	for i, e := range members {
		if e.ID == editedEventID {
			editedIdx = i
			break
		}
	}
	key := cascadeKey(serie.ID, editedEventID, oldDuration, newDuration)
	if editedIdx == -1 || editedIdx == len(members)-1 {
		// Nothing follows the edited event; no writes.
		c.finish(ctx, serie.ID, editedEventID, key)
		return 0, nil
	}

	alreadyShifted := map[string]bool{}
	if c.checkpoints != nil {
		ids, cpErr := c.checkpoints.ShiftedEventIDs(ctx, key)
		if cpErr != nil {
			// Degrade to a fresh cascade; a stale checkpoint read must not
			// block the schedule update.
			c.logger.Warn("cascade checkpoint read failed", "serie_id", serie.ID, "error", cpErr)
		}
		for _, id := range ids {
			alreadyShifted[id] = true
		}
	}

	applied := 0
	for i := editedIdx + 1; i < len(members); i++ {
		follower := members[i]
		if alreadyShifted[follower.ID] {
			applied++
			continue
		}

		follower.Start = follower.Start.Add(shift).UTC()
		if err := c.events.Update(ctx, follower); err != nil {
			return applied, &CascadeError{
				SerieID:     serie.ID,
				EventID:     follower.ID,
				FailedIndex: i,
				Applied:     applied,
				Err:         err,
			}
		}
		applied++

		if c.checkpoints != nil {
			if cpErr := c.checkpoints.MarkShifted(ctx, key, follower.ID); cpErr != nil {
				c.logger.Warn("cascade checkpoint write failed", "serie_id", serie.ID, "event_id", follower.ID, "error", cpErr)
			}
		}
	}

	c.finish(ctx, serie.ID, editedEventID, key)

	c.logger.Info("serie schedule cascaded",
		"serie_id", serie.ID,
		"edited_event_id", editedEventID,
		"shift_minutes", newDuration-oldDuration,
		"events_shifted", applied,
	)
	return applied, nil
}

// finish drops the checkpoint and the recorded intent once a cascade
// completed. A failed cascade keeps both so a retry can resume.
func (c *Coordinator) finish(ctx context.Context, serieID, editedEventID, key string) {
	if c.checkpoints == nil {
		return
	}
	if err := c.checkpoints.Clear(ctx, key); err != nil {
		c.logger.Warn("cascade checkpoint clear failed", "serie_id", serieID, "error", err)
	}
	if err := c.checkpoints.ClearPending(ctx, serieID, editedEventID); err != nil {
		c.logger.Warn("cascade intent clear failed", "serie_id", serieID, "event_id", editedEventID, "error", err)
	}
}
