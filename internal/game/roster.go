package game

import "github.com/google/uuid"

// Roster helpers operate on the ACTIVE registrations of one game, in arrival
// order (registered_at ascending, ties broken by insertion order). Arrival
// order alone decides who is confirmed and who waits: the first maxPlayers
// registrations are confirmed, everyone after them is the waitlist.

// Confirmed returns the confirmed slice of the roster.
func Confirmed(active []Registration, maxPlayers int) []Registration {
	if maxPlayers < 0 {
		maxPlayers = 0
	}
	if len(active) <= maxPlayers {
		return active
	}
	return active[:maxPlayers]
}

// Waitlisted returns the overflow slice of the roster.
func Waitlisted(active []Registration, maxPlayers int) []Registration {
	if maxPlayers < 0 {
		maxPlayers = 0
	}
	if len(active) <= maxPlayers {
		return nil
	}
	return active[maxPlayers:]
}

// SpotsAvailable is how many confirmed slots remain.
func SpotsAvailable(active []Registration, maxPlayers int) int {
	if n := maxPlayers - len(active); n > 0 {
		return n
	}
	return 0
}

// WaitlistPosition returns the 1-based waitlist position of the registration
// with the given id, or 0 if it is not waitlisted.
func WaitlistPosition(active []Registration, maxPlayers int, id uuid.UUID) int {
	for i, r := range Waitlisted(active, maxPlayers) {
		if r.ID == id {
			return i + 1
		}
	}
	return 0
}

// IsConfirmed reports whether the registration with the given id falls inside
// the confirmed range.
func IsConfirmed(active []Registration, maxPlayers int, id uuid.UUID) bool {
	for _, r := range Confirmed(active, maxPlayers) {
		if r.ID == id {
			return true
		}
	}
	return false
}

// NewlyConfirmed diffs two rosters of the same game and returns the
// registrations that are confirmed in after but were not confirmed in before.
// This is how promotions are detected: a cancellation (or a capacity increase)
// shrinks the waitlist, and whoever moved inside the confirmed range gets
// promoted. Order follows the after roster, so the earliest promoted
// registrant comes first.
func NewlyConfirmed(before []Registration, beforeMax int, after []Registration, afterMax int) []Registration {
	prev := make(map[uuid.UUID]bool, beforeMax)
	for _, r := range Confirmed(before, beforeMax) {
		prev[r.ID] = true
	}
	var promoted []Registration
	for _, r := range Confirmed(after, afterMax) {
		if !prev[r.ID] {
			promoted = append(promoted, r)
		}
	}
	return promoted
}
