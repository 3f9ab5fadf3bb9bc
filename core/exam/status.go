package exam

import "time"

// ResolveStatus derives the lifecycle status of an exam from its schedule.
// Rules are evaluated in order:
//	no start time                       -> draft
//	start in the future                 -> scheduled
//	timed with a duration               -> active until start+duration, completed after
//	anything else that has started      -> active
func ResolveStatus(now time.Time, s Schedule) Status {
	if s.ScheduledStartAt == nil {
		return StatusDraft
	}
	start := *s.ScheduledStartAt
	if start.After(now) {
		return StatusScheduled
	}
	if s.IsTimed && s.DurationMinutes != nil {
		if start.Add(minutes(*s.DurationMinutes)).After(now) {
			return StatusActive
		}
		return StatusCompleted
	}
	return StatusActive
}
