package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
)

const maxResultNotesLen = 500

type RecordResultInput struct {
	TeamAScore int
	TeamBScore int
	Notes      string
}

// RecordResult stores the final score. Recording from closed or in_progress
// settles the game as completed on the spot; recording again on a completed
// game corrects the score. The winner is always derived from the scores,
// never accepted from the caller.
func (s *GameService) RecordResult(ctx context.Context, adminID, gameID uuid.UUID, in RecordResultInput) (*game.GameResult, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}

	if in.TeamAScore < 0 {
		return nil, &game.ValidationError{Field: "team_a_score", Reason: "must not be negative"}
	}
	if in.TeamBScore < 0 {
		return nil, &game.ValidationError{Field: "team_b_score", Reason: "must not be negative"}
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if len(in.Notes) > maxResultNotesLen {
		return nil, &game.ValidationError{Field: "notes", Reason: "too long"}
	}

	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()

	g, err := s.games.GetTx(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	if _, err := applyAutoTransition(ctx, tx, s.games, g, now); err != nil {
		return nil, err
	}

	switch g.Status {
	case game.StatusClosed, game.StatusInProgress, game.StatusCompleted:
	default:
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	result := &game.GameResult{
		GameID:      gameID,
		TeamAScore:  in.TeamAScore,
		TeamBScore:  in.TeamBScore,
		WinningTeam: game.WinnerFromScores(in.TeamAScore, in.TeamBScore),
		Notes:       in.Notes,
		RecordedAt:  now,
	}
	if err := s.results.Upsert(ctx, tx, result); err != nil {
		return nil, err
	}

	g.Status = game.StatusCompleted
	g.ResultsRecordedAt = &now
	g.UpdatedAt = now
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	s.audit(ctx, adminID.String(), audit.ActionResultRecord, gameID, map[string]any{
		"team_a_score": in.TeamAScore,
		"team_b_score": in.TeamBScore,
		"winning_team": string(result.WinningTeam),
	})
	s.publish(event.TypeResultRecorded, gameID, result)
	return result, nil
}
