package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
)

type ResultStore struct {
	db *sqlx.DB
}

// Re-recording a result overwrites the previous one; score corrections are a
// normal part of post-game bookkeeping.
const upsertResultQuery = `
	INSERT INTO game_results (game_id, team_a_score, team_b_score, winning_team, notes, recorded_at)
	VALUES (:game_id, :team_a_score, :team_b_score, :winning_team, :notes, :recorded_at)
	ON CONFLICT (game_id) DO UPDATE SET
		team_a_score = excluded.team_a_score,
		team_b_score = excluded.team_b_score,
		winning_team = excluded.winning_team,
		notes = excluded.notes,
		recorded_at = excluded.recorded_at
`

func NewResultStore(db *sqlx.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Upsert(ctx context.Context, tx *sqlx.Tx, r *game.GameResult) error {
	_, err := tx.NamedExecContext(ctx, upsertResultQuery, r)
	return StorageErr(err)
}

func (s *ResultStore) Get(ctx context.Context, gameID uuid.UUID) (*game.GameResult, error) {
	var r game.GameResult
	err := s.db.GetContext(ctx, &r, "SELECT * FROM game_results WHERE game_id = ?", gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, StorageErr(err)
	}
	return &r, nil
}
