package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
)

// NotificationStore is the sqlite-backed notification outbox. It satisfies
// notify.Store.
type NotificationStore struct {
	db *sqlx.DB
}

const createNotificationQuery = `
	INSERT INTO notifications (id, type, game_id, recipient_phone, payload,
		status, deliver_after, created_at, sent_at)
	VALUES (:id, :type, :game_id, :recipient_phone, :payload,
		:status, :deliver_after, :created_at, :sent_at)
`

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Insert(ctx context.Context, n notify.Notification) error {
	_, err := s.db.NamedExecContext(ctx, createNotificationQuery, n)
	return StorageErr(err)
}

func (s *NotificationStore) DuePending(ctx context.Context, now time.Time, limit int) ([]notify.Notification, error) {
	var due []notify.Notification
	err := s.db.SelectContext(ctx, &due,
		`SELECT * FROM notifications
		 WHERE status = 'pending' AND deliver_after <= ?
		 ORDER BY deliver_after ASC, created_at ASC
		 LIMIT ?`,
		now, limit)
	return due, StorageErr(err)
}

func (s *NotificationStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET status = 'sent', sent_at = ? WHERE id = ?",
		at, id)
	return StorageErr(err)
}

// ListByGame returns every notification scheduled for one game, newest first.
func (s *NotificationStore) ListByGame(ctx context.Context, gameID uuid.UUID) ([]notify.Notification, error) {
	var rows []notify.Notification
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM notifications WHERE game_id = ? ORDER BY created_at DESC, rowid DESC",
		gameID)
	return rows, StorageErr(err)
}
