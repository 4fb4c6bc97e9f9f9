package eventstore

import "errors"

var (
	// ErrNotFound is returned when no event has the requested id.
	ErrNotFound = errors.New("event not found")
	// ErrMissingQueryParameter is returned when a name+time delete lacks either parameter.
	ErrMissingQueryParameter = errors.New("missing name or time")
)
