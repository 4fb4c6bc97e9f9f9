package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/rs/zerolog/log"
)

// Service is the board gateway: a racewindow.Display that pushes the
// window to WebSocket clients and serves the snapshot endpoints.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	clock             clockwork.Clock
}

var _ racewindow.Display = (*Service)(nil)

// Config holds configuration for the board gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	Clock            clockwork.Clock
}

// DefaultConfig returns default configuration for the board gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Clock:            clockwork.NewRealClock(),
	}
}

// NewService creates a new board gateway. source feeds new connections and
// GET /api/board; activations may be nil.
func NewService(config Config, source BoardSource, activations racewindow.ActivationHandler) *Service {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig, clock, activations)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, source),
		clock:             clock,
	}
}

// SetSource sets the snapshot source after construction, for when the
// source itself needs this Service as its display.
func (s *Service) SetSource(source BoardSource) {
	s.wsHandler.source = source
}

// SetActivationHandler sets the activation handler after construction.
func (s *Service) SetActivationHandler(activations racewindow.ActivationHandler) {
	s.connectionManager.activations = activations
}

// Start runs the broadcaster until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting board gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("board gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and snapshot HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("board gateway routes registered")
}

// Render broadcasts a membership change.
func (s *Service) Render(entries []racewindow.Entry) {
	s.broadcast(EventTypeWindowRendered, entries)
}

// Refresh broadcasts countdown updates.
func (s *Service) Refresh(entries []racewindow.Entry) {
	s.broadcast(EventTypeCountdownTick, entries)
}

func (s *Service) broadcast(eventType EventType, entries []racewindow.Entry) {
	event, err := newWindowEvent(eventType, entries, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build board event")
		return
	}
	s.connectionManager.Broadcast(event)
}
