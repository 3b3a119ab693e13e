package api

import (
	"net/http"
	"strings"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/geo"
)

// LocationHandlers holds dependencies for location lookup handlers.
type LocationHandlers struct {
	lookup geo.Lookup
}

// NewLocationHandlers creates a new LocationHandlers instance.
func NewLocationHandlers(lookup geo.Lookup) *LocationHandlers {
	return &LocationHandlers{lookup: lookup}
}

// SearchLocations handles GET /locations/search?q=. The lookup is best-effort:
// an upstream failure yields an empty suggestion list, not an error.
func (h *LocationHandlers) SearchLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Query parameter q is required")
		return
	}

	locations := h.lookup.Search(ctx, query)
	if locations == nil {
		locations = []event.Location{}
	}

	WriteJSON(w, ctx, http.StatusOK, map[string]any{"locations": locations})
}
