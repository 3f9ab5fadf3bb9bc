package event

import "time"

// Window places an instant relative to an event's [start, end) interval.
type Window int

const (
	WindowAny    Window = iota
	WindowBefore        // now < start
	WindowDuring        // start <= now < end
	WindowAfter         // end <= now
)

// StatusFilter selects the events that must move to Target.
// Stores translate it to a single conditional bulk update.
type StatusFilter struct {
	Target        Status
	HasIncomplete bool
	Window        Window
	Now           time.Time
}

// BranchFilters returns one filter per status. At any instant an event
// satisfies the facts of exactly one of them.
func BranchFilters(now time.Time) []StatusFilter {
	return []StatusFilter{
		{Target: StatusCompleted, HasIncomplete: false, Window: WindowAny, Now: now},
		{Target: StatusUpcoming, HasIncomplete: true, Window: WindowBefore, Now: now},
		{Target: StatusInProgress, HasIncomplete: true, Window: WindowDuring, Now: now},
		{Target: StatusExpired, HasIncomplete: true, Window: WindowAfter, Now: now},
	}
}

// MatchesFacts reports whether ev's tasks and schedule satisfy the filter,
// whatever its stored status.
func (f StatusFilter) MatchesFacts(ev Event) bool {
	if ev.HasIncomplete() != f.HasIncomplete {
		return false
	}
	switch f.Window {
	case WindowBefore:
		return ev.Start.After(f.Now)
	case WindowDuring:
		return !ev.Start.After(f.Now) && f.Now.Before(ev.EndsAt())
	case WindowAfter:
		return !f.Now.Before(ev.EndsAt())
	default:
		return true
	}
}

// Matches reports whether ev must be updated by the filter: its facts match
// and its stored status differs from the target.
func (f StatusFilter) Matches(ev Event) bool {
	return ev.Status != f.Target && f.MatchesFacts(ev)
}
