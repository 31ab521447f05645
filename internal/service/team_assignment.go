package service

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
)

const (
	AssignRandom = "random"
	AssignManual = "manual"
)

type AssignTeamsInput struct {
	Method string
	// Mapping assigns registration IDs to "team_a" or "team_b". Manual only.
	Mapping map[string]string
}

// TeamAssignment is the resulting split, in arrival order within each side.
type TeamAssignment struct {
	Game  *game.Game
	TeamA []game.Registration
	TeamB []game.Registration
}

// AssignTeams splits the confirmed roster into the two sides and stores the
// result. Assigning while registration is still open closes it, so the
// line-ups can't be invalidated by a later join. Re-assigning overwrites the
// previous split wholesale.
func (s *GameService) AssignTeams(ctx context.Context, adminID, gameID uuid.UUID, in AssignTeamsInput) (*TeamAssignment, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
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

	if g.Status != game.StatusOpen && g.Status != game.StatusClosed {
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	active, err := s.regs.ListActiveTx(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	confirmed := game.Confirmed(active, g.MaxPlayers)
	if len(confirmed) < 2 {
		return nil, &game.ValidationError{Field: "players", Reason: "need at least 2 confirmed players"}
	}

	var p game.Partition
	switch in.Method {
	case "", AssignRandom:
		rng := rand.New(rand.NewSource(s.now().UnixNano()))
		p = game.SplitRandom(confirmed, rng)
	case AssignManual:
		assignment := make(map[uuid.UUID]game.TeamSide, len(in.Mapping))
		for key, side := range in.Mapping {
			id, err := uuid.Parse(key)
			if err != nil {
				return nil, &game.ValidationError{Field: "assignment", Reason: "invalid registration id"}
			}
			assignment[id] = game.TeamSide(side)
		}
		p, err = game.SplitManual(confirmed, assignment)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &game.ValidationError{Field: "method", Reason: "must be random or manual"}
	}

	if err := s.regs.SetTeamAssignments(ctx, tx, gameID, p); err != nil {
		return nil, err
	}

	g.TeamAssignedAt = &now
	closedNow := false
	if g.Status == game.StatusOpen {
		g.Status = game.StatusClosed
		closedNow = true
	}
	g.UpdatedAt = now
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	for i := range p.TeamA {
		p.TeamA[i].TeamAssignment = game.TeamA
	}
	for i := range p.TeamB {
		p.TeamB[i].TeamAssignment = game.TeamB
	}

	for _, r := range p.TeamA {
		s.schedule(ctx, notify.Intent{
			Type:           notify.TypeTeamsAssigned,
			GameID:         g.ID,
			RecipientPhone: r.PlayerPhone,
			Payload:        teamPayload(g, g.TeamAName),
		})
	}
	for _, r := range p.TeamB {
		s.schedule(ctx, notify.Intent{
			Type:           notify.TypeTeamsAssigned,
			GameID:         g.ID,
			RecipientPhone: r.PlayerPhone,
			Payload:        teamPayload(g, g.TeamBName),
		})
	}

	method := in.Method
	if method == "" {
		method = AssignRandom
	}
	s.audit(ctx, adminID.String(), audit.ActionTeamsAssign, g.ID, map[string]any{
		"method": method,
		"team_a": len(p.TeamA),
		"team_b": len(p.TeamB),
	})
	s.publish(event.TypeTeamsAssigned, g.ID, nil)
	if closedNow {
		s.publish(event.TypeGameStatusChanged, g.ID, g.Status)
	}

	return &TeamAssignment{Game: g, TeamA: p.TeamA, TeamB: p.TeamB}, nil
}

func teamPayload(g *game.Game, team string) map[string]any {
	payload := gamePayload(g)
	payload["team"] = team
	return payload
}
