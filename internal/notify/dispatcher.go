package notify

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const dispatchBatchSize = 100

// Dispatcher periodically drains due pending notifications from the outbox
// and hands them to the Sender. A notification stays pending until its send
// succeeds, so delivery is at-least-once.
type Dispatcher struct {
	store  Store
	sender Sender
	log    zerolog.Logger
	now    func() time.Time

	c *cron.Cron
}

func NewDispatcher(store Store, sender Sender, log zerolog.Logger, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		store:  store,
		sender: sender,
		log:    log.With().Str("component", "notify").Logger(),
		now:    now,
	}
}

// Start schedules Dispatch on the given cron spec (e.g. "@every 1m").
func (d *Dispatcher) Start(spec string) error {
	d.c = cron.New()
	_, err := d.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := d.Dispatch(ctx); err != nil {
			d.log.Error().Err(err).Msg("dispatch failed")
		}
	})
	if err != nil {
		return err
	}
	d.c.Start()
	return nil
}

// Stop waits for an in-flight run to finish.
func (d *Dispatcher) Stop() {
	if d.c != nil {
		<-d.c.Stop().Done()
	}
}

// Dispatch delivers everything currently due and reports how many
// notifications were sent. A failing send leaves its notification pending
// for the next run and does not block the rest of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	now := d.now().UTC()

	due, err := d.store.DuePending(ctx, now, dispatchBatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range due {
		if err := d.sender.Send(ctx, n); err != nil {
			d.log.Warn().Err(err).
				Str("notification_id", n.ID.String()).
				Str("type", n.Type).
				Msg("send failed, will retry")
			continue
		}
		if err := d.store.MarkSent(ctx, n.ID, now); err != nil {
			d.log.Warn().Err(err).
				Str("notification_id", n.ID.String()).
				Msg("mark sent failed")
			continue
		}
		sent++
	}

	if sent > 0 {
		d.log.Info().Int("sent", sent).Msg("notifications dispatched")
	}
	return sent, nil
}
