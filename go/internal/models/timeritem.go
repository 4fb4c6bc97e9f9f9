package models

import (
	"fmt"
	"time"
)

// TimerItem represents a scheduled race as stored by the event store
type TimerItem struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Time  string         `json:"time"` // RFC 3339 start instant, kept verbatim for name+time deletes
	Stats map[string]any `json:"stats,omitempty"`
}

// StartTime parses the item's start instant.
func (t TimerItem) StartTime() (time.Time, error) {
	start, err := time.Parse(time.RFC3339Nano, t.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time for item %q: %w", t.ID, err)
	}
	return start, nil
}

// Summary returns the card subline ("8 horses • Dirt track") or "" when
// either the horse count or the track is missing.
func (t TimerItem) Summary() string {
	if t.Stats == nil {
		return ""
	}
	horses, ok := t.Stats["horses"]
	if !ok || horses == nil {
		return ""
	}
	track, _ := t.Stats["track"].(string)
	if track == "" {
		return ""
	}
	return fmt.Sprintf("%v horses • %s track", horses, track)
}
