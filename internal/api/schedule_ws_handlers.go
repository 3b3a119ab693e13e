// Package api provides HTTP handlers for the JoinMe API, including WebSocket
// subscriptions for live schedule updates.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
	"github.com/SWENT-team09-2025/joinme-backend/internal/series"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins from the CORS configuration.
		return true
	},
}

// ScheduleWebSocketHandlers holds dependencies for schedule WebSocket handlers.
type ScheduleWebSocketHandlers struct {
	series      series.Repository
	broadcaster *series.ScheduleBroadcaster
}

// NewScheduleWebSocketHandlers creates a new ScheduleWebSocketHandlers instance.
func NewScheduleWebSocketHandlers(serieRepo series.Repository, broadcaster *series.ScheduleBroadcaster) *ScheduleWebSocketHandlers {
	return &ScheduleWebSocketHandlers{
		series:      serieRepo,
		broadcaster: broadcaster,
	}
}

// SubscribeToScheduleChanges handles GET /series/{id}/ws. Connected clients
// receive a schedule_changed event whenever the serie's member schedule shifts.
func (h *ScheduleWebSocketHandlers) SubscribeToScheduleChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serieID := r.PathValue("id")
	if _, err := h.series.GetByID(ctx, serieID); err != nil {
		if errors.Is(err, series.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Serie not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get serie", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve serie")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade websocket connection",
			"error", err,
			"serie_id", serieID,
		)
		return
	}

	h.broadcaster.Subscribe(serieID, conn)

	requestID := middleware.GetRequestID(ctx)
	slog.InfoContext(ctx, "websocket client subscribed to schedule changes",
		"serie_id", serieID,
		"request_id", requestID,
	)

	defer func() {
		h.broadcaster.Unsubscribe(conn)
		conn.Close()
		slog.InfoContext(ctx, "websocket client unsubscribed",
			"serie_id", serieID,
			"request_id", requestID,
		)
	}()

	// Clients don't send messages; reading detects disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.WarnContext(ctx, "websocket connection closed unexpectedly",
					"error", err,
					"serie_id", serieID,
				)
			}
			break
		}
	}
}
