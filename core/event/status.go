package event

import "time"

// ResolveStatus derives the status of ev at now.
// Completion wins over time: an event without incomplete tasks is completed.
func ResolveStatus(now time.Time, ev Event) Status {
	switch {
	case !ev.HasIncomplete():
		return StatusCompleted
	case ev.Start.After(now):
		return StatusUpcoming
	case now.Before(ev.EndsAt()):
		return StatusInProgress
	default:
		return StatusExpired
	}
}
