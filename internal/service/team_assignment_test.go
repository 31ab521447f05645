package service

import (
	"context"
	"testing"
	"time"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTeamsRandom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 10)
	for i := 1; i <= 5; i++ {
		env.register(t, g.ShareToken, i)
	}
	env.notifier.reset()

	result, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignRandom})
	require.NoError(t, err)

	assert.Len(t, result.TeamA, 3)
	assert.Len(t, result.TeamB, 2)

	seen := map[string]bool{}
	for _, r := range append(result.TeamA, result.TeamB...) {
		assert.False(t, seen[r.PlayerName], "player assigned twice")
		seen[r.PlayerName] = true
	}
	assert.Len(t, seen, 5)

	// assigning while open closes registration
	assert.Equal(t, game.StatusClosed, result.Game.Status)
	require.NotNil(t, result.Game.TeamAssignedAt)

	// persisted, not just returned
	active, err := env.regStore.ListActive(ctx, g.ID)
	require.NoError(t, err)
	var a, b int
	for _, r := range active {
		switch r.TeamAssignment {
		case game.TeamA:
			a++
		case game.TeamB:
			b++
		}
	}
	assert.Equal(t, 3, a)
	assert.Equal(t, 2, b)

	intents := env.notifier.byType(notify.TypeTeamsAssigned)
	require.Len(t, intents, 5)
	teams := map[string]int{}
	for _, it := range intents {
		teams[it.Payload["team"].(string)]++
	}
	assert.Equal(t, 3, teams["Equipo A"])
	assert.Equal(t, 2, teams["Equipo B"])

	require.Len(t, env.auditor.byAction(audit.ActionTeamsAssign), 1)
	require.Len(t, env.bus.byType(event.TypeTeamsAssigned), 1)
	require.Len(t, env.bus.byType(event.TypeGameStatusChanged), 2) // open, then closed by assignment
}

func TestAssignTeamsManual(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 4)
	for i := 1; i <= 4; i++ {
		env.register(t, g.ShareToken, i)
	}

	mapping := manualMapping(t, env, g, map[int]game.TeamSide{
		1: game.TeamA, 2: game.TeamB, 3: game.TeamB, 4: game.TeamA,
	})
	result, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
	require.NoError(t, err)

	require.Len(t, result.TeamA, 2)
	require.Len(t, result.TeamB, 2)
	// sides keep arrival order
	assert.Equal(t, testName(1), result.TeamA[0].PlayerName)
	assert.Equal(t, testName(4), result.TeamA[1].PlayerName)
	assert.Equal(t, testName(2), result.TeamB[0].PlayerName)
	assert.Equal(t, testName(3), result.TeamB[1].PlayerName)
}

func TestAssignTeamsManualValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 4)
	for i := 1; i <= 4; i++ {
		env.register(t, g.ShareToken, i)
	}

	t.Run("missing player", func(t *testing.T) {
		mapping := manualMapping(t, env, g, map[int]game.TeamSide{
			1: game.TeamA, 2: game.TeamB, 3: game.TeamB,
		})
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
		assert.ErrorIs(t, err, game.ErrIncompleteAssignment)
	})

	t.Run("unbalanced", func(t *testing.T) {
		mapping := manualMapping(t, env, g, map[int]game.TeamSide{
			1: game.TeamA, 2: game.TeamA, 3: game.TeamA, 4: game.TeamB,
		})
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
		assert.ErrorIs(t, err, game.ErrUnbalancedTeams)
	})

	t.Run("bad side value", func(t *testing.T) {
		mapping := manualMapping(t, env, g, map[int]game.TeamSide{
			1: game.TeamA, 2: game.TeamB, 3: game.TeamB,
		})
		active, err := env.regStore.ListActive(ctx, g.ID)
		require.NoError(t, err)
		mapping[active[3].ID.String()] = "equipo_c"
		_, err = env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
		var verr *game.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "assignment", verr.Field)
	})

	t.Run("unknown registration id", func(t *testing.T) {
		mapping := map[string]string{"not-a-uuid": "team_a"}
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
		var verr *game.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "assignment", verr.Field)
	})

	t.Run("bad method", func(t *testing.T) {
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: "coinflip"})
		var verr *game.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "method", verr.Field)
	})
}

func TestAssignTeamsThreePlayersMayBeLopsided(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 4)
	for i := 1; i <= 3; i++ {
		env.register(t, g.ShareToken, i)
	}

	mapping := manualMapping(t, env, g, map[int]game.TeamSide{
		1: game.TeamA, 2: game.TeamA, 3: game.TeamA,
	})
	result, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
	require.NoError(t, err)
	assert.Len(t, result.TeamA, 3)
	assert.Empty(t, result.TeamB)
}

func TestAssignTeamsNeedsTwoConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)
	env.register(t, g.ShareToken, 1)

	_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{})
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "players", verr.Field)
}

func TestAssignTeamsWrongStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("draft", func(t *testing.T) {
		g, err := env.games.CreateGame(ctx, env.adminID, CreateGameInput{
			Title:          "Partido",
			ScheduledStart: testKickoff,
		})
		require.NoError(t, err)
		_, err = env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{})
		assert.ErrorIs(t, err, game.ErrInvalidStatus)
	})

	t.Run("completed", func(t *testing.T) {
		g := env.createOpenGame(t, 0)
		env.register(t, g.ShareToken, 1)
		env.register(t, g.ShareToken, 2)
		env.clock.Set(g.EndsAt().Add(time.Minute))
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{})
		assert.ErrorIs(t, err, game.ErrInvalidStatus)
		env.clock.Set(testKickoff.Add(-48 * time.Hour))
	})
}

func TestAssignTeamsReassignOverwrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 4)
	for i := 1; i <= 5; i++ {
		env.register(t, g.ShareToken, i)
	}

	mapping := manualMapping(t, env, g, map[int]game.TeamSide{
		1: game.TeamA, 2: game.TeamA, 3: game.TeamB, 4: game.TeamB,
	})
	_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: mapping})
	require.NoError(t, err)

	flipped := manualMapping(t, env, g, map[int]game.TeamSide{
		1: game.TeamB, 2: game.TeamB, 3: game.TeamA, 4: game.TeamA,
	})
	result, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: flipped})
	require.NoError(t, err)
	assert.Equal(t, testName(3), result.TeamA[0].PlayerName)
	assert.Equal(t, testName(1), result.TeamB[0].PlayerName)

	// the waitlisted fifth player is never on a team
	active, err := env.regStore.ListActive(ctx, g.ID)
	require.NoError(t, err)
	for _, r := range active {
		if r.PlayerName == testName(5) {
			assert.Equal(t, game.TeamNone, r.TeamAssignment)
		}
	}
}

func TestAssignTeamsOwnership(t *testing.T) {
	env := newTestEnv(t)

	g := env.createOpenGame(t, 0)
	_, err := env.games.AssignTeams(context.Background(), env.otherID, g.ID, AssignTeamsInput{})
	assert.ErrorIs(t, err, game.ErrNotOwner)
}
