package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/rs/zerolog/log"
)

// BoardSource provides the current window for new clients and the REST
// snapshot.
type BoardSource interface {
	Snapshot() []racewindow.Entry
}

// BoardResponse is the body of GET /api/board
type BoardResponse struct {
	Entries     []racewindow.Entry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// WebSocketHandler handles board WebSocket and snapshot requests
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	source            BoardSource
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, source BoardSource) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		source:            source,
	}
}

// HandleBoardConnection upgrades to a WebSocket and sends the current window
// as the first WindowRendered event.
func (h *WebSocketHandler) HandleBoardConnection(w http.ResponseWriter, r *http.Request) {
	initial := func() (*BoardEvent, error) {
		return newWindowEvent(EventTypeWindowRendered, h.snapshot(), h.connectionManager.clock.Now())
	}

	// Upgrade writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, initial); err != nil {
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to open board connection")
	}
}

// HandleBoardSnapshot serves the current window as JSON
func (h *WebSocketHandler) HandleBoardSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BoardResponse{
		Entries:     h.snapshot(),
		GeneratedAt: h.connectionManager.clock.Now(),
	})
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": h.connectionManager.ConnectionCount(),
	})
}

// RegisterRoutes registers board routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/board", h.HandleBoardConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("GET /api/board", h.HandleBoardSnapshot)
}

func (h *WebSocketHandler) snapshot() []racewindow.Entry {
	if h.source == nil {
		return []racewindow.Entry{}
	}
	entries := h.source.Snapshot()
	if entries == nil {
		entries = []racewindow.Entry{}
	}
	return entries
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
