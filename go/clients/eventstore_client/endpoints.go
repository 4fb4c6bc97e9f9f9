package eventstore_client

const (
	// Base URL used when none is configured
	DefaultBaseURL = "http://localhost:8080"

	// API Endpoints
	EventsEndpoint = "/events"

	// Query parameters for name+time deletes
	NameParam = "name"
	TimeParam = "time"

	// Headers
	AcceptHeader = "Accept"
	JSONMimeType = "application/json"
)
