package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outbox is the Scheduler implementation: intents land in the notifications
// table and survive restarts until the dispatcher picks them up.
type Outbox struct {
	store Store
	now   func() time.Time
}

func NewOutbox(store Store, now func() time.Time) *Outbox {
	if now == nil {
		now = time.Now
	}
	return &Outbox{store: store, now: now}
}

func (o *Outbox) Schedule(ctx context.Context, intent Intent) error {
	payload := []byte("{}")
	if intent.Payload != nil {
		var err error
		payload, err = json.Marshal(intent.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	now := o.now().UTC()
	deliverAfter := intent.DeliverAfter
	if deliverAfter.IsZero() {
		deliverAfter = now
	}

	n := Notification{
		ID:             uuid.New(),
		Type:           intent.Type,
		GameID:         intent.GameID,
		RecipientPhone: intent.RecipientPhone,
		Payload:        string(payload),
		Status:         StatusPending,
		DeliverAfter:   deliverAfter.UTC(),
		CreatedAt:      now,
	}

	if err := o.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
