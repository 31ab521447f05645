package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/mattn/go-sqlite3"
)

type RegistrationStore struct {
	db *sqlx.DB
}

const (
	createRegistrationQuery = `
		INSERT INTO registrations (id, game_id, player_name, player_phone,
			payment_status, team_assignment, registered_at, paid_at)
		VALUES (:id, :game_id, :player_name, :player_phone,
			:payment_status, :team_assignment, :registered_at, :paid_at)
	`
	// Arrival order: same-timestamp ties fall back to insertion order.
	listActiveQuery = `
		SELECT * FROM registrations
		WHERE game_id = ? AND payment_status != 'refunded'
		ORDER BY registered_at ASC, rowid ASC
	`
	getActiveByPhoneQuery = `
		SELECT * FROM registrations
		WHERE game_id = ? AND player_phone = ? AND payment_status != 'refunded'
	`
)

func NewRegistrationStore(db *sqlx.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// Create inserts the registration. The partial unique indexes make this the
// atomic admission check: a second active registration with the same phone or
// the same (case/space-insensitive) name comes back as
// game.ErrDuplicateRegistration, never as a lost write.
func (s *RegistrationStore) Create(ctx context.Context, tx *sqlx.Tx, r *game.Registration) error {
	_, err := tx.NamedExecContext(ctx, createRegistrationQuery, r)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return game.ErrDuplicateRegistration
	}
	return StorageErr(err)
}

func (s *RegistrationStore) ListActive(ctx context.Context, gameID uuid.UUID) ([]game.Registration, error) {
	var regs []game.Registration
	err := s.db.SelectContext(ctx, &regs, listActiveQuery, gameID)
	return regs, StorageErr(err)
}

func (s *RegistrationStore) ListActiveTx(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID) ([]game.Registration, error) {
	var regs []game.Registration
	err := tx.SelectContext(ctx, &regs, listActiveQuery, gameID)
	return regs, StorageErr(err)
}

func (s *RegistrationStore) GetActiveByPhone(ctx context.Context, gameID uuid.UUID, phone string) (*game.Registration, error) {
	var r game.Registration
	err := s.db.GetContext(ctx, &r, getActiveByPhoneQuery, gameID, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &r, nil
}

func (s *RegistrationStore) GetActiveByPhoneTx(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, phone string) (*game.Registration, error) {
	var r game.Registration
	err := tx.GetContext(ctx, &r, getActiveByPhoneQuery, gameID, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &r, nil
}

func (s *RegistrationStore) GetTx(ctx context.Context, tx *sqlx.Tx, gameID, id uuid.UUID) (*game.Registration, error) {
	var r game.Registration
	err := tx.GetContext(ctx, &r, "SELECT * FROM registrations WHERE id = ? AND game_id = ?", id, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &r, nil
}

// Delete removes the registration row for good. Cancellations are hard
// deletes; the freed spot is what drives promotion.
func (s *RegistrationStore) Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE id = ?", id)
	if err != nil {
		return StorageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrNotFound
	}
	return nil
}

// SetTeamAssignments overwrites the game's team split: everyone back to none,
// then each side in one statement.
func (s *RegistrationStore) SetTeamAssignments(ctx context.Context, tx *sqlx.Tx, gameID uuid.UUID, p game.Partition) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE registrations SET team_assignment = 'none' WHERE game_id = ?", gameID); err != nil {
		return StorageErr(err)
	}

	if err := assignSide(ctx, tx, game.TeamA, p.TeamA); err != nil {
		return err
	}
	return assignSide(ctx, tx, game.TeamB, p.TeamB)
}

func assignSide(ctx context.Context, tx *sqlx.Tx, side game.TeamSide, regs []game.Registration) error {
	if len(regs) == 0 {
		return nil
	}

	ids := make([]string, len(regs))
	for i, r := range regs {
		ids[i] = r.ID.String()
	}

	query, args, err := sqlx.In(
		"UPDATE registrations SET team_assignment = ? WHERE id IN (?)", side, ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return StorageErr(err)
}

func (s *RegistrationStore) UpdatePayment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status game.PaymentStatus, paidAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE registrations SET payment_status = ?, paid_at = ? WHERE id = ?",
		status, paidAt, id)
	if err != nil {
		return StorageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return game.ErrNotFound
	}
	return nil
}
