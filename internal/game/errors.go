package game

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coarse failure kinds. Callers match them with
// errors.Is; the typed errors below add context and unwrap to these.
var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateRegistration  = errors.New("player is already registered for this game")
	ErrRegistrationClosed     = errors.New("registration is closed")
	ErrCancellationNotAllowed = errors.New("registration can no longer be cancelled")
	ErrInvalidStatus          = errors.New("action not allowed in current game status")
	ErrNotOwner               = errors.New("admin does not own this game")
	ErrIncompleteAssignment   = errors.New("every confirmed player must be assigned to exactly one team")
	ErrUnbalancedTeams        = errors.New("team sizes may differ by at most one player")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)

// ValidationError rejects malformed input. Always recoverable; the message is
// surfaced verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StateError rejects an action that is not valid for the game's current
// status. It carries the status so callers can react to it.
type StateError struct {
	Err    error
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (game is %s)", e.Err, e.Status)
}

func (e *StateError) Unwrap() error { return e.Err }

// NewStateError wraps one of the status sentinels with the offending status.
func NewStateError(err error, status Status) *StateError {
	return &StateError{Err: err, Status: status}
}

// CapacityReductionError rejects shrinking maxPlayers below the number of
// already confirmed players.
type CapacityReductionError struct {
	Confirmed int
	Requested int
}

func (e *CapacityReductionError) Error() string {
	return fmt.Sprintf("cannot reduce capacity to %d: %d players already confirmed", e.Requested, e.Confirmed)
}
