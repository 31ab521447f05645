package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
)

// OwnershipChecker answers whether an admin owns a game. Backed by the game
// store; fakes in tests.
type OwnershipChecker interface {
	IsOwner(ctx context.Context, adminID, gameID uuid.UUID) (bool, error)
}

// requireOwner resolves authorization for one admin call. Not owning a game
// is reported as game.ErrNotOwner, which the HTTP layer renders exactly like
// a missing game so share tokens stay the only public handle.
func requireOwner(ctx context.Context, owns OwnershipChecker, adminID, gameID uuid.UUID) error {
	owned, err := owns.IsOwner(ctx, adminID, gameID)
	if err != nil {
		return err
	}
	if !owned {
		return game.ErrNotOwner
	}
	return nil
}

// applyAutoTransition persists the time-forced status change for the game, if
// any, and mutates g to match. Runs inside the caller's transaction so the
// decision and the write see the same row.
func applyAutoTransition(ctx context.Context, tx *sqlx.Tx, games *store.GameStore, g *game.Game, now time.Time) (bool, error) {
	next, changed := game.ComputeStatus(g.Status, g.ScheduledStart, g.DurationMinutes, now)
	if !changed {
		return false, nil
	}
	if err := games.UpdateStatus(ctx, tx, g.ID, next, now); err != nil {
		return false, err
	}
	g.Status = next
	g.UpdatedAt = now
	return true, nil
}
