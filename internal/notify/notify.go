// Package notify turns lifecycle decisions into notification intents and
// drives their delivery. The engine only ever schedules intents; actual
// delivery transport is pluggable behind Sender and defaults to logging.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Intent types.
const (
	TypeRegistrationConfirmed  = "registration_confirmed"
	TypeRegistrationWaitlisted = "registration_waitlisted"
	TypePromoted               = "promoted"
	TypeGameCancelled          = "game_cancelled"
	TypeGameUpdated            = "game_updated"
	TypeTeamsAssigned          = "teams_assigned"
)

// Notification statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// Intent describes one message the engine wants delivered to one phone.
// A zero DeliverAfter means "as soon as possible".
type Intent struct {
	Type           string
	GameID         uuid.UUID
	RecipientPhone string
	Payload        map[string]any
	DeliverAfter   time.Time
}

// Scheduler accepts intents for later delivery. At-least-once; callers treat
// scheduling failures as best-effort and never roll back over them.
type Scheduler interface {
	Schedule(ctx context.Context, intent Intent) error
}

// Notification is a stored intent waiting in the outbox.
type Notification struct {
	ID             uuid.UUID  `db:"id"`
	Type           string     `db:"type"`
	GameID         uuid.UUID  `db:"game_id"`
	RecipientPhone string     `db:"recipient_phone"`
	Payload        string     `db:"payload"`
	Status         string     `db:"status"`
	DeliverAfter   time.Time  `db:"deliver_after"`
	CreatedAt      time.Time  `db:"created_at"`
	SentAt         *time.Time `db:"sent_at"`
}

// Sender delivers one due notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Store is the outbox persistence the scheduler and dispatcher need.
type Store interface {
	Insert(ctx context.Context, n Notification) error
	DuePending(ctx context.Context, now time.Time, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}
