// Package domain holds pure pipeline helpers shared by the service and
// repository layers.
package domain

import "time"

// DurationDays reports how many whole days an opportunity spent in a stage.
// Partial days are floored, and a clock that reads earlier than the recorded
// entry time yields zero rather than a negative duration.
func DurationDays(enteredStageAt, now time.Time) int {
	if !now.After(enteredStageAt) {
		return 0
	}
	return int(now.Sub(enteredStageAt) / (24 * time.Hour))
}
