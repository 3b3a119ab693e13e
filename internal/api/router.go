package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig collects the handler groups the router mounts.
type RouterConfig struct {
	Events    *EventHandlers
	Series    *SerieHandlers
	Profiles  *ProfileHandlers
	Locations *LocationHandlers
	Exports   *ExportHandlers
	Schedule  *ScheduleWebSocketHandlers
	Health    *HealthHandlers

	// MetricsHandler serves GET /metrics; nil disables the endpoint.
	MetricsHandler http.Handler
}

// NewRouter builds the route table. Method routing uses the mux's method
// patterns; an unmatched path falls through to the structured 404 at the root.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	mux.Handle("GET /metrics", cfg.MetricsHandler)

	mux.HandleFunc("POST /events", cfg.Events.CreateEvent)
	mux.HandleFunc("GET /events", cfg.Events.ListEvents)
	mux.HandleFunc("GET /events/{id}", cfg.Events.GetEvent)
	mux.HandleFunc("PATCH /events/{id}", cfg.Events.UpdateEvent)
	mux.HandleFunc("DELETE /events/{id}", cfg.Events.DeleteEvent)
	mux.HandleFunc("POST /events/{id}/join", cfg.Events.JoinEvent)
	mux.HandleFunc("POST /events/{id}/leave", cfg.Events.LeaveEvent)
	mux.HandleFunc("GET /events/{id}/ics", cfg.Exports.ExportEventICS)

	mux.HandleFunc("POST /series", cfg.Series.CreateSerie)
	mux.HandleFunc("GET /series", cfg.Series.ListSeries)
	mux.HandleFunc("GET /series/{id}", cfg.Series.GetSerie)
	mux.HandleFunc("PATCH /series/{id}", cfg.Series.UpdateSerie)
	mux.HandleFunc("DELETE /series/{id}", cfg.Series.DeleteSerie)
	mux.HandleFunc("PATCH /series/{id}/duration", cfg.Series.UpdateDuration)
	mux.HandleFunc("GET /series/{id}/events/{eventId}", cfg.Series.GetSerieEvent)
	mux.HandleFunc("DELETE /series/{id}/events/{eventId}", cfg.Series.RemoveSerieEvent)
	mux.HandleFunc("GET /series/{id}/ics", cfg.Exports.ExportSerieICS)
	mux.HandleFunc("GET /series/{id}/ws", cfg.Schedule.SubscribeToScheduleChanges)

	mux.HandleFunc("POST /profiles", cfg.Profiles.CreateProfile)
	mux.HandleFunc("GET /profiles/{id}", cfg.Profiles.GetProfile)
	mux.HandleFunc("PATCH /profiles/{id}", cfg.Profiles.UpdateProfile)
	mux.HandleFunc("DELETE /profiles/{id}", cfg.Profiles.DeleteProfile)

	mux.HandleFunc("GET /locations/search", cfg.Locations.SearchLocations)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		WriteJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "joinme-api",
			"version": "0.1.0",
		})
	})

	return mux
}
