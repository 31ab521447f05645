package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
)

type GameStore struct {
	db *sqlx.DB
}

const (
	getGameQuery        = "SELECT * FROM games WHERE id = ?"
	getGameByTokenQuery = "SELECT * FROM games WHERE share_token = ?"
	createGameQuery     = `
		INSERT INTO games (id, admin_id, title, scheduled_start, duration_minutes,
			min_players, max_players, cost_per_player, status, share_token,
			team_a_name, team_b_name, created_at, updated_at)
		VALUES (:id, :admin_id, :title, :scheduled_start, :duration_minutes,
			:min_players, :max_players, :cost_per_player, :status, :share_token,
			:team_a_name, :team_b_name, :created_at, :updated_at)
	`
	updateGameQuery = `
		UPDATE games SET
			title = :title,
			scheduled_start = :scheduled_start,
			duration_minutes = :duration_minutes,
			min_players = :min_players,
			max_players = :max_players,
			cost_per_player = :cost_per_player,
			status = :status,
			team_a_name = :team_a_name,
			team_b_name = :team_b_name,
			team_assigned_at = :team_assigned_at,
			results_recorded_at = :results_recorded_at,
			updated_at = :updated_at
		WHERE id = :id
	`
)

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Create(ctx context.Context, tx *sqlx.Tx, g *game.Game) error {
	_, err := tx.NamedExecContext(ctx, createGameQuery, g)
	return StorageErr(err)
}

func (s *GameStore) Get(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	var g game.Game
	err := s.db.GetContext(ctx, &g, getGameQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &g, nil
}

// GetTx re-reads the game inside a transaction so status decisions are made
// against the row the transaction will write.
func (s *GameStore) GetTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*game.Game, error) {
	var g game.Game
	err := tx.GetContext(ctx, &g, getGameQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &g, nil
}

func (s *GameStore) GetByShareToken(ctx context.Context, token string) (*game.Game, error) {
	var g game.Game
	err := s.db.GetContext(ctx, &g, getGameByTokenQuery, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &g, nil
}

// GameFilter narrows ListByAdmin. Zero values mean "no filter"; Limit must be
// set by the caller.
type GameFilter struct {
	Status game.Status
	From   *time.Time
	Limit  int
	Offset int
}

func (s *GameStore) ListByAdmin(ctx context.Context, adminID uuid.UUID, f GameFilter) ([]game.Game, error) {
	query := "SELECT * FROM games WHERE admin_id = ?"
	args := []any{adminID}

	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.From != nil {
		query += " AND scheduled_start >= ?"
		args = append(args, f.From.UTC())
	}

	query += " ORDER BY scheduled_start DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	var games []game.Game
	err := s.db.SelectContext(ctx, &games, query, args...)
	return games, StorageErr(err)
}

func (s *GameStore) Update(ctx context.Context, tx *sqlx.Tx, g *game.Game) error {
	_, err := tx.NamedExecContext(ctx, updateGameQuery, g)
	return StorageErr(err)
}

func (s *GameStore) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status game.Status, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE games SET status = ?, updated_at = ? WHERE id = ?",
		status, at, id)
	return StorageErr(err)
}

func (s *GameStore) Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
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

// IsOwner reports whether the admin owns the game. Unknown games are simply
// not owned.
func (s *GameStore) IsOwner(ctx context.Context, adminID, gameID uuid.UUID) (bool, error) {
	var owned bool
	err := s.db.GetContext(ctx, &owned,
		"SELECT EXISTS (SELECT 1 FROM games WHERE id = ? AND admin_id = ?)",
		gameID, adminID)
	return owned, StorageErr(err)
}
