package game

import "time"

// ComputeStatus derives the time-forced status of a game. It is a pure
// function of (current status, schedule, now): while the scheduled window
// [start, start+duration] contains now, a draft/open/closed game is forced to
// in_progress; once the window has passed, anything not already terminal is
// forced to completed. Terminal states and states the clock cannot produce
// are never touched, so reapplying at the same instant is a no-op.
//
// The bool reports whether the returned status differs from current.
func ComputeStatus(current Status, start time.Time, durationMinutes int, now time.Time) (Status, bool) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	if now.After(end) {
		switch current {
		case StatusDraft, StatusOpen, StatusClosed, StatusInProgress:
			return StatusCompleted, true
		}
		return current, false
	}

	if !now.Before(start) {
		switch current {
		case StatusDraft, StatusOpen, StatusClosed:
			return StatusInProgress, true
		}
	}
	return current, false
}

// RegistrationOpen reports whether a player may still register: the game must
// be open and now must be earlier than cutoff before the scheduled start.
func RegistrationOpen(g *Game, now time.Time, cutoff time.Duration) bool {
	if g.Status != StatusOpen {
		return false
	}
	return now.Before(g.ScheduledStart.Add(-cutoff))
}

// CancellationOpen reports whether a player may still cancel their
// registration: not once the game is running or finished, and not inside the
// cutoff window before the scheduled start.
func CancellationOpen(g *Game, now time.Time, cutoff time.Duration) bool {
	if g.Status == StatusInProgress || g.Status == StatusCompleted {
		return false
	}
	return now.Before(g.ScheduledStart.Add(-cutoff))
}
