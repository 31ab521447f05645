// Package audit defines the audit trail port. Every mutating admin or player
// action appends one entry; recording is best-effort and never rolls back the
// action it describes.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the engine.
const (
	ActionGameCreate    = "game.create"
	ActionGameUpdate    = "game.update"
	ActionGameDelete    = "game.delete"
	ActionGameOpen      = "game.open"
	ActionGameClose     = "game.close"
	ActionGameCancel    = "game.cancel"
	ActionTeamsAssign   = "teams.assign"
	ActionResultRecord  = "result.record"
	ActionRegister      = "registration.create"
	ActionUnregister    = "registration.cancel"
	ActionPaymentUpdate = "payment.update"
)

// Entity types an entry can point at.
const (
	EntityGame         = "game"
	EntityRegistration = "registration"
)

// Entry is one line of the audit trail. ActorID is the admin's user id, or
// the registrant's phone for public self-service actions.
type Entry struct {
	At         time.Time
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}
