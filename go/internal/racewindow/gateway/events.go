package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
)

// BoardEvent is the envelope for every message sent to board clients
type BoardEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of board event
type EventType string

const (
	EventTypeWindowRendered EventType = "WindowRendered"
	EventTypeCountdownTick  EventType = "CountdownTick"
	EventTypeNavigate       EventType = "Navigate"
	EventTypeError          EventType = "Error"
)

// WindowPayload carries the displayed races. WindowRendered means the set
// or order changed; CountdownTick only moves the remaining times.
type WindowPayload struct {
	Entries []racewindow.Entry `json:"entries"`
}

// ErrorPayload answers a client message that could not be served
type ErrorPayload struct {
	Message string `json:"message"`
}

// ClientMessageType represents the type of message a board client sends
type ClientMessageType string

const ClientMessageActivate ClientMessageType = "activate"

// ClientMessage is what board clients send, e.g. {"type":"activate","id":"42"}
type ClientMessage struct {
	Type ClientMessageType `json:"type"`
	ID   string            `json:"id"`
}

func newBoardEvent(eventType EventType, payload any, now time.Time) (*BoardEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &BoardEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}, nil
}

func newWindowEvent(eventType EventType, entries []racewindow.Entry, now time.Time) (*BoardEvent, error) {
	if entries == nil {
		entries = []racewindow.Entry{}
	}
	return newBoardEvent(eventType, WindowPayload{Entries: entries}, now)
}
