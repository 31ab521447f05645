package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
)

// AuditStore persists the audit trail. It satisfies audit.Recorder.
type AuditStore struct {
	db *sqlx.DB
}

func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Record(ctx context.Context, e audit.Entry) error {
	details := []byte("{}")
	if e.Details != nil {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return err
		}
	}

	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (at, actor_id, action, entity_type, entity_id, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		at, e.ActorID, e.Action, e.EntityType, e.EntityID, string(details))
	return StorageErr(err)
}

// AuditRow is an audit entry as stored, details still JSON.
type AuditRow struct {
	ID         int64     `db:"id"`
	At         time.Time `db:"at"`
	ActorID    string    `db:"actor_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Details    string    `db:"details"`
}

// ListByEntity returns the newest entries for one entity.
func (s *AuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]AuditRow, error) {
	var rows []AuditRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM audit_log
		 WHERE entity_type = ? AND entity_id = ?
		 ORDER BY id DESC LIMIT ?`,
		entityType, entityID, limit)
	return rows, StorageErr(err)
}
