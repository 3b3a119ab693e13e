package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/ics"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
)

// ExportHandlers renders events and series as iCalendar documents.
type ExportHandlers struct {
	events event.Repository
	series series.Repository
	lister func(r *http.Request, serieID string) ([]*event.Event, error)
}

// NewExportHandlers creates a new ExportHandlers instance. serieHandlers
// supplies the schedule-ordered member listing.
func NewExportHandlers(events event.Repository, serieRepo series.Repository, serieHandlers *SerieHandlers) *ExportHandlers {
	return &ExportHandlers{
		events: events,
		series: serieRepo,
		lister: serieHandlers.sortedMembers,
	}
}

// ExportEventICS handles GET /events/{id}/ics.
func (h *ExportHandlers) ExportEventICS(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="event.ics"`)
	if _, err := w.Write([]byte(ics.ExportEvent(e))); err != nil {
		slog.ErrorContext(ctx, "failed to write calendar response", "error", err)
	}
}

// ExportSerieICS handles GET /series/{id}/ics.
func (h *ExportHandlers) ExportSerieICS(w http.ResponseWriter, r *http.Request) {
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

	members, err := h.lister(r, s.ID)
	if err != nil {
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to load serie events")
		return
	}

	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="serie.ics"`)
	if _, err := w.Write([]byte(ics.ExportSerie(s, members))); err != nil {
		slog.ErrorContext(ctx, "failed to write calendar response", "error", err)
	}
}
