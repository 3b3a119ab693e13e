package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/form"
	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
)

// stringOr returns *p or the fallback when p is nil.
func stringOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

// UpdateEventRequest is the PATCH body for an event. Only provided fields are
// touched; form fields keep their raw textual shape so the validators can run.
type UpdateEventRequest struct {
	Category    *string         `json:"category,omitempty"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Location    *event.Location `json:"location,omitempty"`
	Date        *string         `json:"date,omitempty"`
	Time        *string         `json:"time,omitempty"`
	Duration    *string         `json:"duration,omitempty"`
	Capacity    *string         `json:"capacity,omitempty"`
	Visibility  *string         `json:"visibility,omitempty"`
}

// EventHandlers holds dependencies for event HTTP handlers.
type EventHandlers struct {
	events      event.Repository
	series      series.Repository
	coordinator *series.Coordinator
	broadcaster *series.ScheduleBroadcaster
	now         func() time.Time
}

// NewEventHandlers creates a new EventHandlers instance. coordinator and
// broadcaster may be nil when serie cascades are not wired (tests).
func NewEventHandlers(events event.Repository, serieRepo series.Repository, coordinator *series.Coordinator, broadcaster *series.ScheduleBroadcaster) *EventHandlers {
	return &EventHandlers{
		events:      events,
		series:      serieRepo,
		coordinator: coordinator,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// WithClock overrides the time source. Test helper.
func (h *EventHandlers) WithClock(now func() time.Time) *EventHandlers {
	h.now = now
	return h
}

// CreateEvent handles POST /events.
func (h *EventHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req EventFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	in, fields := validateEventForm(&req, true, false, false, 0, h.now())
	if fields != nil {
		WriteValidationError(w, ctx, fields)
		return
	}

	newEvent := &event.Event{
		ID:              uuid.New().String(),
		Category:        in.Category,
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		Start:           in.Start,
		DurationMinutes: in.Duration,
		Capacity:        in.Capacity,
		Visibility:      in.Visibility,
		OwnerID:         userID,
		Participants:    []string{},
	}
	if err := newEvent.Validate(); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	if err := h.events.Insert(ctx, newEvent); err != nil {
		slog.ErrorContext(ctx, "failed to create event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to create event")
		return
	}

	WriteJSON(w, ctx, http.StatusCreated, newEvent)
}

// GetEvent handles GET /events/{id}.
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e, err := h.events.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve event")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, e)
}

// ListEvents handles GET /events. Supported query filters: serie_id, owner_id,
// participant_id, visibility.
func (h *EventHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := event.Filter{
		SerieID:       q.Get("serie_id"),
		OwnerID:       q.Get("owner_id"),
		ParticipantID: q.Get("participant_id"),
	}
	if raw := q.Get("visibility"); raw != "" {
		vis, err := event.ParseVisibility(raw)
		if err != nil {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "visibility must be PUBLIC or PRIVATE")
			return
		}
		f.Visibility = vis
	}

	events, err := h.events.List(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list events", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to list events")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, map[string]any{"events": events})
}

// UpdateEvent handles PATCH /events/{id}. Only the owner may edit. A duration
// change on a serie member shifts every following member's start time.
func (h *EventHandlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	existing, err := h.events.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve event")
		return
	}
	if existing.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can edit an event")
		return
	}

	oldDuration := existing.DurationMinutes
	fields, err := h.applyEventUpdate(existing, &req)
	if len(fields) > 0 {
		WriteValidationError(w, ctx, fields)
		return
	}
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	cascadeNeeded := existing.SerieID != nil && h.coordinator != nil && existing.DurationMinutes != oldDuration
	if cascadeNeeded {
		// Record the intent before the write lands; afterwards the old
		// duration survives only in the intent.
		if err := h.coordinator.BeginCascade(ctx, *existing.SerieID, existing.ID, oldDuration, existing.DurationMinutes); err != nil {
			slog.ErrorContext(ctx, "failed to record cascade intent", "serie_id", *existing.SerieID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update event")
			return
		}
	}

	if err := h.events.Update(ctx, existing); err != nil {
		slog.ErrorContext(ctx, "failed to update event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update event")
		return
	}

	if cascadeNeeded {
		if err := h.cascadeDurationChange(w, r, existing, oldDuration); err != nil {
			return
		}
	} else if existing.SerieID != nil && h.coordinator != nil {
		// An unchanged duration may be a retry of an edit whose cascade
		// stopped partway; resume any recorded intent.
		shift, applied, resumed, err := h.coordinator.ResumePending(ctx, *existing.SerieID, existing.ID)
		if err != nil {
			h.writeCascadeError(w, ctx, *existing.SerieID, err)
			return
		}
		if resumed {
			h.broadcastScheduleChange(*existing.SerieID, existing.ID, shift, applied)
		}
	}

	WriteJSON(w, ctx, http.StatusOK, existing)
}

// applyEventUpdate validates each provided field and applies it in place.
// Validation failures come back as a field message map; structural failures as
// an error.
func (h *EventHandlers) applyEventUpdate(e *event.Event, req *UpdateEventRequest) (map[string]string, error) {
	payload := EventFormRequest{
		Category:    stringOr(req.Category, string(e.Category)),
		Title:       stringOr(req.Title, e.Title),
		Description: stringOr(req.Description, e.Description),
		Location:    e.Location,
		Date:        stringOr(req.Date, e.Start.Format(form.DateLayout)),
		Time:        stringOr(req.Time, e.Start.Format(form.TimeLayout)),
		Duration:    stringOr(req.Duration, strconv.Itoa(e.DurationMinutes)),
		Capacity:    stringOr(req.Capacity, strconv.Itoa(e.Capacity)),
		Visibility:  stringOr(req.Visibility, string(e.Visibility)),
	}
	if req.Location != nil {
		payload.Location = req.Location
	}

	// When the patch leaves the schedule alone, date and time are refilled
	// from the stored start, which may legitimately lie in the past.
	scheduleTouched := req.Date != nil || req.Time != nil
	in, fields := validateEventForm(&payload, false, !scheduleTouched, false, len(e.Participants), h.now())
	if fields != nil {
		return fields, nil
	}

	e.Category = in.Category
	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.Start = in.Start
	e.DurationMinutes = in.Duration
	e.Capacity = in.Capacity
	e.Visibility = in.Visibility
	return nil, e.Validate()
}

// cascadeDurationChange runs the serie schedule cascade after a member's
// duration changed. The edited event is already persisted; on cascade failure
// a partial-failure error is written and the non-nil return tells the caller
// to stop.
func (h *EventHandlers) cascadeDurationChange(w http.ResponseWriter, r *http.Request, e *event.Event, oldDuration int) error {
	ctx := r.Context()

	parent, err := h.series.GetByID(ctx, *e.SerieID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load serie for cascade", "serie_id", *e.SerieID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInconsistentState, "Event references a serie that cannot be loaded")
		return err
	}

	applied, err := h.coordinator.RecalculateFollowingEvents(ctx, parent, e.ID, oldDuration, e.DurationMinutes)
	if err != nil {
		h.writeCascadeError(w, ctx, parent.ID, err)
		return err
	}

	h.broadcastScheduleChange(parent.ID, e.ID, e.DurationMinutes-oldDuration, applied)
	return nil
}

// writeCascadeError maps a cascade failure onto the error envelope. A
// partial failure keeps the recorded intent, so retrying the same request
// resumes where the cascade stopped.
func (h *EventHandlers) writeCascadeError(w http.ResponseWriter, ctx context.Context, serieID string, err error) {
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

func (h *EventHandlers) broadcastScheduleChange(serieID, editedEventID string, shiftMinutes, eventsShifted int) {
	if h.broadcaster == nil {
		return
	}
	h.broadcaster.Broadcast(serieID, &series.ScheduleChangeEvent{
		Type:          "schedule_changed",
		SerieID:       serieID,
		EditedEventID: editedEventID,
		ShiftMinutes:  shiftMinutes,
		EventsShifted: eventsShifted,
		OccurredAt:    h.now().UTC(),
	})
}

// DeleteEvent handles DELETE /events/{id}. Only the owner may delete. Serie
// membership is detached first so the serie never references a missing event.
func (h *EventHandlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	existing, err := h.events.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve event")
		return
	}
	if existing.OwnerID != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only the owner can delete an event")
		return
	}

	if existing.SerieID != nil {
		parent, err := h.series.GetByID(ctx, *existing.SerieID)
		if err == nil {
			parent.RemoveEvent(existing.ID)
			if err := h.series.Update(ctx, parent); err != nil {
				slog.ErrorContext(ctx, "failed to detach event from serie", "serie_id", parent.ID, "error", err)
				WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to detach event from serie")
				return
			}
		} else if !errors.Is(err, series.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to load serie for detach", "serie_id", *existing.SerieID, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to detach event from serie")
			return
		}
	}

	if err := h.events.Delete(ctx, existing.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// JoinEvent handles POST /events/{id}/join.
func (h *EventHandlers) JoinEvent(w http.ResponseWriter, r *http.Request) {
	h.changeParticipation(w, r, func(e *event.Event, userID string) error {
		return e.Join(userID)
	})
}

// LeaveEvent handles POST /events/{id}/leave.
func (h *EventHandlers) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	h.changeParticipation(w, r, func(e *event.Event, userID string) error {
		return e.Leave(userID)
	})
}

func (h *EventHandlers) changeParticipation(w http.ResponseWriter, r *http.Request, apply func(*event.Event, string) error) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	e, err := h.events.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get event", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve event")
		return
	}

	if err := apply(e, userID); err != nil {
		switch {
		case errors.Is(err, event.ErrEventFull):
			WriteError(w, ctx, http.StatusConflict, ErrCodeEventFull, "Event is at capacity")
		case errors.Is(err, event.ErrAlreadyJoined):
			WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, "Already joined this event")
		case errors.Is(err, event.ErrNotParticipant):
			WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, "Not a participant of this event")
		default:
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update participation")
		}
		return
	}

	if err := h.events.Update(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to persist participation change", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update participation")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, e)
}
