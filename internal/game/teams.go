package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// Partition is a split of the confirmed roster into two teams.
type Partition struct {
	TeamA []Registration
	TeamB []Registration
}

// Balanced reports whether the two sides differ by at most one player.
func (p Partition) Balanced() bool {
	diff := len(p.TeamA) - len(p.TeamB)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// SplitRandom shuffles the confirmed players and deals them into two teams,
// with team A taking the extra player on odd counts. The input slice is not
// modified.
func SplitRandom(confirmed []Registration, rng *rand.Rand) Partition {
	shuffled := make([]Registration, len(confirmed))
	copy(shuffled, confirmed)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	sizeA := (len(shuffled) + 1) / 2
	return Partition{
		TeamA: shuffled[:sizeA],
		TeamB: shuffled[sizeA:],
	}
}

// SplitManual builds a partition from an explicit assignment of registration
// IDs to sides. Every confirmed player must appear exactly once, no unknown
// IDs are accepted, and for games of four or more the sides must stay within
// one player of each other. Team order follows the roster's arrival order.
func SplitManual(confirmed []Registration, assignment map[uuid.UUID]TeamSide) (Partition, error) {
	if len(assignment) != len(confirmed) {
		return Partition{}, ErrIncompleteAssignment
	}

	var p Partition
	for _, reg := range confirmed {
		side, ok := assignment[reg.ID]
		if !ok {
			return Partition{}, ErrIncompleteAssignment
		}
		switch side {
		case TeamA:
			p.TeamA = append(p.TeamA, reg)
		case TeamB:
			p.TeamB = append(p.TeamB, reg)
		default:
			return Partition{}, &ValidationError{Field: "assignment", Reason: "team must be team_a or team_b"}
		}
	}

	if len(confirmed) >= 4 && !p.Balanced() {
		return Partition{}, ErrUnbalancedTeams
	}
	return p, nil
}
