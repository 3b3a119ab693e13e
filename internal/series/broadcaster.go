package series

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ScheduleChangeEvent is pushed to WebSocket subscribers whenever a serie's
// member schedule changes.
type ScheduleChangeEvent struct {
	Type          string    `json:"type"` // "schedule_changed"
	SerieID       string    `json:"serie_id"`
	EditedEventID string    `json:"edited_event_id,omitempty"`
	ShiftMinutes  int       `json:"shift_minutes,omitempty"`
	EventsShifted int       `json:"events_shifted"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ScheduleBroadcaster manages WebSocket connections and pushes schedule
// change events to subscribers of a serie.
type ScheduleBroadcaster struct {
	mu          sync.RWMutex
	connections map[string]map[*websocket.Conn]bool // serieID -> connections
}

// NewScheduleBroadcaster creates a new schedule broadcaster.
func NewScheduleBroadcaster() *ScheduleBroadcaster {
	return &ScheduleBroadcaster{
		connections: make(map[string]map[*websocket.Conn]bool),
	}
}

// Subscribe registers a WebSocket connection for a serie.
func (b *ScheduleBroadcaster) Subscribe(serieID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connections[serieID] == nil {
		b.connections[serieID] = make(map[*websocket.Conn]bool)
	}
	b.connections[serieID][conn] = true
}

// Unsubscribe removes a WebSocket connection from all series.
func (b *ScheduleBroadcaster) Unsubscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for serieID, conns := range b.connections {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(b.connections, serieID)
		}
	}
}

// Broadcast sends a schedule change event to all subscribers of a serie.
func (b *ScheduleBroadcaster) Broadcast(serieID string, evt *ScheduleChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conns, exists := b.connections[serieID]
	if !exists || len(conns) == 0 {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("failed to marshal schedule change event", "error", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("failed to send message to websocket client",
				"error", err,
				"serie_id", serieID,
			)
			// Connection will be cleaned up when the client disconnects.
		}
	}
}

// ConnectionCount returns the number of active subscribers for a serie.
func (b *ScheduleBroadcaster) ConnectionCount(serieID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if conns, exists := b.connections[serieID]; exists {
		return len(conns)
	}
	return 0
}
