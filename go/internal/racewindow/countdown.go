package racewindow

import (
	"fmt"
	"time"
)

// FormatCountdown renders a remaining duration as HH:MM:SS. Negative
// durations render as 00:00:00; partial seconds are dropped. Hours keep
// counting past 24.
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	total := int64(remaining / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
