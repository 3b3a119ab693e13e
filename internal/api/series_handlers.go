package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/form"
	"github.com/SWENT-team09-2025/joinme-backend/internal/group"
	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
)

// CreateSerieRequest is the POST body for a serie. Form fields are raw text,
// the same per-field messages the editing screen shows come back on failure.
// Recurrence is an optional RFC 5545 RRULE expanded into member events; without
// it the serie gets a single member at the anchor instant.
type CreateSerieRequest struct {
	EventFormRequest
	GroupID        *string `json:"group_id,omitempty"`
	Recurrence     string  `json:"recurrence,omitempty"`
	MaxOccurrences int     `json:"max_occurrences,omitempty"`
}

// UpdateSerieRequest is the PATCH body for a serie. Capacity and visibility
// are rejected on group-linked series.
type UpdateSerieRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Capacity    *string `json:"capacity,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
}

// UpdateDurationRequest is the PATCH /series/{id}/duration body: change one
// member event's duration and shift every following member accordingly.
type UpdateDurationRequest struct {
	EventID  string `json:"event_id"`
	Duration string `json:"duration"`
}

// SerieHandlers holds dependencies for serie HTTP handlers.
type SerieHandlers struct {
	series      series.Repository
	events      event.Repository
	groups      group.Reader
	coordinator *series.Coordinator
	broadcaster *series.ScheduleBroadcaster
	now         func() time.Time
}

// NewSerieHandlers creates a new SerieHandlers instance.
func NewSerieHandlers(serieRepo series.Repository, events event.Repository, groups group.Reader, coordinator *series.Coordinator, broadcaster *series.ScheduleBroadcaster) *SerieHandlers {
	return &SerieHandlers{
		series:      serieRepo,
		events:      events,
		groups:      groups,
		coordinator: coordinator,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// WithClock overrides the time source. Test helper.
func (h *SerieHandlers) WithClock(now func() time.Time) *SerieHandlers {
	h.now = now
	return h
}

// CreateSerie handles POST /series. A group-linked serie inherits capacity and
// visibility from the group and seeds participants from its members; those
// form fields are waived. The recurrence rule, when present, is expanded into
// one member event per occurrence.
func (h *SerieHandlers) CreateSerie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req CreateSerieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	var linkedGroup *group.Group
	if req.GroupID != nil && *req.GroupID != "" {
		g, err := h.groups.GetByID(ctx, *req.GroupID)
		if err != nil {
			if errors.Is(err, group.ErrNotFound) {
				WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Group not found")
				return
			}
			slog.ErrorContext(ctx, "failed to load group", "group_id", *req.GroupID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to load group")
			return
		}
		linkedGroup = g
	}

	in, fields := validateEventForm(&req.EventFormRequest, true, false, linkedGroup != nil, 0, h.now())
	if fields != nil {
		WriteValidationError(w, ctx, fields)
		return
	}
	if linkedGroup != nil {
		in.Capacity = linkedGroup.Capacity
		in.Visibility = linkedGroup.Visibility
		if in.Category == "" {
			in.Category = event.CategorySocial
		}
	}

	starts := []time.Time{in.Start}
	if req.Recurrence != "" {
		expanded, err := series.ExpandRecurrence(in.Start, req.Recurrence, req.MaxOccurrences)
		if err != nil {
			WriteValidationError(w, ctx, map[string]string{"recurrence": form.MsgInvalidFormat})
			return
		}
		starts = expanded
	}

	newSerie := &series.Serie{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Start:       in.Start,
		Capacity:    in.Capacity,
		Visibility:  in.Visibility,
		OwnerID:     userID,
		GroupID:     req.GroupID,
		EventIDs:    []string{},
	}

	members := make([]*event.Event, 0, len(starts))
	for _, start := range starts {
		participants := []string{}
		if linkedGroup != nil {
			participants = append(participants, linkedGroup.MemberIDs...)
			if len(participants) > in.Capacity {
				participants = participants[:in.Capacity]
			}
		}
		member := &event.Event{
			ID:              uuid.New().String(),
			Category:        in.Category,
			Title:           in.Title,
			Description:     in.Description,
			Location:        in.Location,
			Start:           start,
			DurationMinutes: in.Duration,
			Capacity:        in.Capacity,
			Visibility:      in.Visibility,
			OwnerID:         userID,
			Participants:    participants,
			SerieID:         &newSerie.ID,
		}
		member.ParticipantCount = len(member.Participants)
		members = append(members, member)
		newSerie.AddEvent(member.ID)
	}

	if err := h.series.Insert(ctx, newSerie); err != nil {
		slog.ErrorContext(ctx, "failed to create serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to create serie")
		return
	}
	for _, member := range members {
		if err := h.events.Insert(ctx, member); err != nil {
			slog.ErrorContext(ctx, "failed to create serie member event",
				"serie_id", newSerie.ID,
				"event_id", member.ID,
				"error", err,
			)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to create serie events")
			return
		}
	}

	WriteJSON(w, ctx, http.StatusCreated, map[string]any{
		"serie":  newSerie,
		"events": members,
	})
}

// GetSerie handles GET /series/{id}, returning the serie and its member
// events in schedule order.
func (h *SerieHandlers) GetSerie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := h.series.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}

	members, err := h.sortedMembers(r, s.ID)
	if err != nil {
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to load serie events")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, map[string]any{
		"serie":  s,
		"events": members,
	})
}

// ListSeries handles GET /series. Without an owner_id query parameter the
// caller's own series are listed.
func (h *SerieHandlers) ListSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		ownerID = middleware.GetUserID(ctx)
	}
	if ownerID == "" {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "owner_id is required")
		return
	}

	list, err := h.series.ListByOwner(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list series", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to list series")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, map[string]any{"series": list})
}

// UpdateSerie handles PATCH /series/{id}. Capacity and visibility edits are
// refused on group-linked series; those values belong to the group.
func (h *SerieHandlers) UpdateSerie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req UpdateSerieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	s, err := h.series.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}
	if s.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can edit a serie")
		return
	}

	if s.InheritsFromGroup() && (req.Capacity != nil || req.Visibility != nil) {
		// Re-assert the group still resolves before refusing; a dangling
		// reference is the more urgent problem.
		if _, gErr := h.groups.GetByID(ctx, *s.GroupID); gErr != nil {
			inconsistent := &series.InconsistentStateError{SerieID: s.ID, GroupID: *s.GroupID, Err: gErr}
			slog.ErrorContext(ctx, "serie references unloadable group", "error", inconsistent)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInconsistentState, "Serie references a group that cannot be loaded")
			return
		}
		WriteError(w, ctx, http.StatusConflict, ErrCodeGroupFieldFrozen, series.ErrGroupFieldFrozen.Error())
		return
	}

	fields := make(map[string]string)
	if req.Title != nil {
		if out := form.ValidateTitle(*req.Title); out.Valid() {
			s.Title = out.Normalized
		} else {
			fields[string(form.FieldTitle)] = out.Message
		}
	}
	if req.Description != nil {
		if out := form.ValidateDescription(*req.Description); out.Valid() {
			s.Description = out.Normalized
		} else {
			fields[string(form.FieldDescription)] = out.Message
		}
	}
	if req.Capacity != nil {
		floor, err := h.maxParticipants(r, s)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load serie events for capacity check", "serie_id", s.ID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to load serie events")
			return
		}
		if out := form.ValidateCapacity(*req.Capacity, floor); out.Valid() {
			s.Capacity = atoiValidated(out.Normalized)
		} else {
			fields[string(form.FieldCapacity)] = out.Message
		}
	}
	if req.Visibility != nil {
		if out := form.ValidateVisibility(*req.Visibility); out.Valid() {
			s.Visibility = event.Visibility(out.Normalized)
		} else {
			fields[string(form.FieldVisibility)] = out.Message
		}
	}
	if len(fields) > 0 {
		WriteValidationError(w, ctx, fields)
		return
	}

	if err := h.series.Update(ctx, s); err != nil {
		slog.ErrorContext(ctx, "failed to update serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update serie")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, s)
}

// maxParticipants returns the highest participant count across the serie's
// member events; the capacity floor for serie-level capacity edits.
func (h *SerieHandlers) maxParticipants(r *http.Request, s *series.Serie) (int, error) {
	members, err := h.events.List(r.Context(), event.Filter{SerieID: s.ID})
	if err != nil {
		return 0, err
	}
	max := 0
	for _, m := range members {
		if len(m.Participants) > max {
			max = len(m.Participants)
		}
	}
	return max, nil
}

// DeleteSerie handles DELETE /series/{id}. Deletion is refused while member
// events remain.
func (h *SerieHandlers) DeleteSerie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	s, err := h.series.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}
	if s.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can delete a serie")
		return
	}

	if err := h.series.Delete(ctx, s.ID); err != nil {
		if errors.Is(err, series.ErrHasMemberEvents) {
			WriteError(w, ctx, http.StatusConflict, ErrCodeSerieHasEvents, "Serie still has member events; delete them first")
			return
		}
		slog.ErrorContext(ctx, "failed to delete serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to delete serie")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateDuration handles PATCH /series/{id}/duration: set one member event's
// duration and shift every chronologically following member by the same delta,
// preserving relative gaps. The edited event's own start never changes. A
// partial failure leaves earlier shifts in place; retrying with the same
// Idempotency-Key resumes without double-shifting.
func (h *SerieHandlers) UpdateDuration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req UpdateDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.EventID == "" {
		WriteValidationError(w, ctx, map[string]string{"event_id": form.MsgEmpty})
		return
	}
	durOut := form.ValidateDuration(req.Duration)
	if !durOut.Valid() {
		WriteValidationError(w, ctx, map[string]string{string(form.FieldDuration): durOut.Message})
		return
	}
	newDuration := atoiValidated(durOut.Normalized)

	s, err := h.series.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}
	if s.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can edit the serie schedule")
		return
	}

	edited, err := h.events.GetByID(ctx, req.EventID)
	if err != nil || edited.SerieID == nil || *edited.SerieID != s.ID {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event is not a member of this serie")
		return
	}

	oldDuration := edited.DurationMinutes
	shiftMinutes := newDuration - oldDuration
	eventsShifted := 0
	cascaded := false
	if newDuration != oldDuration {
		// Record the intent first: once the edited event is persisted with
		// the new duration, the old one survives only in the intent.
		if err := h.coordinator.BeginCascade(ctx, s.ID, edited.ID, oldDuration, newDuration); err != nil {
			slog.ErrorContext(ctx, "failed to record cascade intent", "serie_id", s.ID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update serie schedule")
			return
		}

		edited.DurationMinutes = newDuration
		if err := h.events.Update(ctx, edited); err != nil {
			slog.ErrorContext(ctx, "failed to persist duration change", "event_id", edited.ID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update event duration")
			return
		}

		applied, err := h.coordinator.RecalculateFollowingEvents(ctx, s, edited.ID, oldDuration, newDuration)
		if err != nil {
			h.writeCascadeError(w, ctx, s.ID, err)
			return
		}
		eventsShifted = applied
		cascaded = true
	} else {
		// The stored duration already matches the request: either nothing
		// changed, or a prior attempt persisted the duration and the cascade
		// stopped partway. Resume any recorded intent.
		shift, applied, resumed, err := h.coordinator.ResumePending(ctx, s.ID, edited.ID)
		if err != nil {
			h.writeCascadeError(w, ctx, s.ID, err)
			return
		}
		if resumed {
			shiftMinutes = shift
			eventsShifted = applied
			cascaded = true
		}
	}

	if cascaded && h.broadcaster != nil {
		h.broadcaster.Broadcast(s.ID, &series.ScheduleChangeEvent{
			Type:          "schedule_changed",
			SerieID:       s.ID,
			EditedEventID: edited.ID,
			ShiftMinutes:  shiftMinutes,
			EventsShifted: eventsShifted,
			OccurredAt:    h.now().UTC(),
		})
	}

	members, err := h.sortedMembers(r, s.ID)
	if err != nil {
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to load serie events")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, map[string]any{
		"serie":  s,
		"events": members,
	})
}

// writeCascadeError maps a cascade failure onto the error envelope. A
// partial failure keeps the recorded intent, so retrying the same request
// resumes where the cascade stopped.
func (h *SerieHandlers) writeCascadeError(w http.ResponseWriter, ctx context.Context, serieID string, err error) {
	var cascadeErr *series.CascadeError
	if errors.As(err, &cascadeErr) {
		slog.ErrorContext(ctx, "serie schedule cascade stopped partway",
			"serie_id", serieID,
			"failed_event_id", cascadeErr.EventID,
			"applied", cascadeErr.Applied,
			"error", err,
		)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeCascadePartial,
			"Schedule update stopped partway; retry with the same Idempotency-Key to resume")
		return
	}
	slog.ErrorContext(ctx, "serie schedule cascade failed", "serie_id", serieID, "error", err)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update serie schedule")
}

// GetSerieEvent handles GET /series/{id}/events/{eventId}: a member event in
// serie context.
func (h *SerieHandlers) GetSerieEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serieID := r.PathValue("id")
	e, err := h.events.GetByID(ctx, r.PathValue("eventId"))
	if err != nil || e.SerieID == nil || *e.SerieID != serieID {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event is not a member of this serie")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, e)
}

// RemoveSerieEvent handles DELETE /series/{id}/events/{eventId}: delete a
// member event and detach it from the serie.
func (h *SerieHandlers) RemoveSerieEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	s, err := h.series.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}
	if s.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can edit a serie")
		return
	}

	eventID := r.PathValue("eventId")
	if !s.HasEvent(eventID) {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event is not a member of this serie")
		return
	}

	s.RemoveEvent(eventID)
	if err := h.series.Update(ctx, s); err != nil {
		slog.ErrorContext(ctx, "failed to detach event from serie", "serie_id", s.ID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to detach event from serie")
		return
	}
	if err := h.events.Delete(ctx, eventID); err != nil && !errors.Is(err, event.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to delete serie member event", "event_id", eventID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sortedMembers loads a serie's member events in schedule order: start
// ascending, ties broken by event ID.
func (h *SerieHandlers) sortedMembers(r *http.Request, serieID string) ([]*event.Event, error) {
	members, err := h.events.List(r.Context(), event.Filter{SerieID: serieID})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load serie events", "serie_id", serieID, "error", err)
		return nil, err
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Start.Equal(members[j].Start) {
			return members[i].ID < members[j].ID
		}
		return members[i].Start.Before(members[j].Start)
	})
	return members, nil
}

// atoiValidated converts a validator-normalized integer string. The validator
// already guaranteed the format.
func atoiValidated(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
