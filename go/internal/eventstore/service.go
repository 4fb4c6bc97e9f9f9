package eventstore

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service exposes the App over HTTP.
type Service struct {
	app *App
}

// NewService creates a new event store HTTP service
func NewService(app *App) *Service {
	return &Service{app: app}
}

type errorResponse struct {
	Error string `json:"error"`
}

type removedResponse struct {
	Removed bool `json:"removed"`
}

// RegisterRoutes registers the event routes with an HTTP mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /events", s.HandleListEvents)
	mux.HandleFunc("DELETE /events", s.HandleDeleteByNameAndTime)
	mux.HandleFunc("GET /events/{id}", s.HandleGetEvent)
	mux.HandleFunc("DELETE /events/{id}", s.HandleDeleteByID)
}

// HandleListEvents handles GET /events
func (s *Service) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListEvents(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list events")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to read events"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleGetEvent handles GET /events/{id}
func (s *Service) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := s.app.GetEvent(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("event_id", id).Msg("failed to get event")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to read"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDeleteByID handles DELETE /events/{id}
func (s *Service) HandleDeleteByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, err := s.app.DeleteEventByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("event_id", id).Msg("failed to delete event")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update"})
		return
	}
	writeRemoved(w, removed)
}

// HandleDeleteByNameAndTime handles DELETE /events?name=...&time=...
func (s *Service) HandleDeleteByNameAndTime(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name, time := query.Get("name"), query.Get("time")

	removed, err := s.app.DeleteEventByNameAndTime(r.Context(), name, time)
	if errors.Is(err, ErrMissingQueryParameter) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing name or time"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("name", name).Str("time", time).Msg("failed to delete event")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update events"})
		return
	}
	writeRemoved(w, removed)
}

// writeRemoved answers 200 {"removed":true}, or a bodiless 204 when
// nothing matched.
func writeRemoved(w http.ResponseWriter, removed bool) {
	if !removed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
