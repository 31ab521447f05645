package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFillsThenWaitlists(t *testing.T) {
	env := newTestEnv(t)

	g := env.createOpenGame(t, 2)

	first := env.register(t, g.ShareToken, 1)
	assert.True(t, first.Confirmed)
	assert.Zero(t, first.WaitlistPosition)

	second := env.register(t, g.ShareToken, 2)
	assert.True(t, second.Confirmed)

	third := env.register(t, g.ShareToken, 3)
	assert.False(t, third.Confirmed)
	assert.Equal(t, 1, third.WaitlistPosition)

	fourth := env.register(t, g.ShareToken, 4)
	assert.False(t, fourth.Confirmed)
	assert.Equal(t, 2, fourth.WaitlistPosition)

	confirmed := env.notifier.byType(notify.TypeRegistrationConfirmed)
	require.Len(t, confirmed, 2)
	waitlisted := env.notifier.byType(notify.TypeRegistrationWaitlisted)
	require.Len(t, waitlisted, 2)
	assert.Equal(t, 1, waitlisted[0].Payload["position"])
	assert.Equal(t, testPhone(3), waitlisted[0].RecipientPhone)

	view, err := env.public.PublicGame(context.Background(), g.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ConfirmedCount)
	assert.Equal(t, 0, view.SpotsAvailable)
	assert.Equal(t, 2, view.WaitlistSize)
	require.Len(t, view.Players, 2)
	assert.Equal(t, testName(1), view.Players[0].Name)

	require.Len(t, env.auditor.byAction(audit.ActionRegister), 4)
	require.Len(t, env.bus.byType(event.TypeRegistrationCreated), 4)
}

func TestRegisterDuplicatePhoneOrName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)
	env.register(t, g.ShareToken, 1)

	// same phone, different name
	_, err := env.public.Register(ctx, g.ShareToken, "Otro Nombre", testPhone(1))
	assert.ErrorIs(t, err, game.ErrDuplicateRegistration)

	// same name up to case and spacing, different phone
	_, err = env.public.Register(ctx, g.ShareToken, "  jugador 01 ", testPhone(99))
	assert.ErrorIs(t, err, game.ErrDuplicateRegistration)

	// phone formatting differences collapse too
	_, err = env.public.Register(ctx, g.ShareToken, "Tercer Nombre", "+54 911 100-0001")
	assert.ErrorIs(t, err, game.ErrDuplicateRegistration)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)

	_, err := env.public.Register(ctx, g.ShareToken, "   ", testPhone(1))
	var verr *game.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "player_name", verr.Field)

	_, err = env.public.Register(ctx, g.ShareToken, "Jugador", "12345")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "player_phone", verr.Field)

	_, err = env.public.Register(ctx, g.ShareToken, "Jugador", "no es un teléfono")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "player_phone", verr.Field)
}

func TestRegisterUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.public.Register(context.Background(), "no-such-token", testName(1), testPhone(1))
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestRegisterOutsideWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("draft game", func(t *testing.T) {
		g, err := env.games.CreateGame(ctx, env.adminID, CreateGameInput{
			Title:          "Partido",
			ScheduledStart: testKickoff,
		})
		require.NoError(t, err)

		_, err = env.public.Register(ctx, g.ShareToken, testName(1), testPhone(1))
		var serr *game.StateError
		require.ErrorAs(t, err, &serr)
		assert.ErrorIs(t, err, game.ErrRegistrationClosed)
		assert.Equal(t, game.StatusDraft, serr.Status)
	})

	t.Run("closed early", func(t *testing.T) {
		g := env.createOpenGame(t, 0)
		_, err := env.games.CloseRegistration(ctx, env.adminID, g.ID)
		require.NoError(t, err)

		_, err = env.public.Register(ctx, g.ShareToken, testName(1), testPhone(1))
		var serr *game.StateError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, game.StatusClosed, serr.Status)
	})

	t.Run("cutoff reached", func(t *testing.T) {
		g := env.createOpenGame(t, 0)
		env.clock.Set(testKickoff.Add(-2 * time.Hour))

		_, err := env.public.Register(ctx, g.ShareToken, testName(1), testPhone(1))
		var serr *game.StateError
		require.ErrorAs(t, err, &serr)
		assert.ErrorIs(t, err, game.ErrRegistrationClosed)
		// still open for viewing, just not for joining
		assert.Equal(t, game.StatusOpen, serr.Status)

		env.clock.Set(testKickoff.Add(-48 * time.Hour))
	})

	t.Run("one second before cutoff", func(t *testing.T) {
		g := env.createOpenGame(t, 0)
		env.clock.Set(testKickoff.Add(-2*time.Hour - time.Second))

		_, err := env.public.Register(ctx, g.ShareToken, testName(5), testPhone(5))
		require.NoError(t, err)

		env.clock.Set(testKickoff.Add(-48 * time.Hour))
	})
}

func TestRegisterConcurrentSamePhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.public.Register(ctx, g.ShareToken, testName(1), testPhone(1))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, game.ErrDuplicateRegistration)
		dup++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)

	var count int
	require.NoError(t, env.db.Get(&count, "SELECT COUNT(*) FROM registrations WHERE game_id = ?", g.ID))
	assert.Equal(t, 1, count)
}

func TestCancelPromotesHeadOfWaitlist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 2)
	env.register(t, g.ShareToken, 1)
	env.register(t, g.ShareToken, 2)
	env.register(t, g.ShareToken, 3)
	env.register(t, g.ShareToken, 4)
	env.notifier.reset()

	require.NoError(t, env.public.CancelRegistration(ctx, g.ShareToken, testPhone(1)))

	promoted := env.notifier.byType(notify.TypePromoted)
	require.Len(t, promoted, 1)
	assert.Equal(t, testPhone(3), promoted[0].RecipientPhone)

	roster, err := env.games.GetRegistrations(ctx, env.adminID, g.ID)
	require.NoError(t, err)
	require.Len(t, roster.Confirmed, 2)
	assert.Equal(t, testName(2), roster.Confirmed[0].PlayerName)
	assert.Equal(t, testName(3), roster.Confirmed[1].PlayerName)
	require.Len(t, roster.Waitlist, 1)
	assert.Equal(t, testName(4), roster.Waitlist[0].PlayerName)

	require.Len(t, env.bus.byType(event.TypeRegistrationCancelled), 1)
	require.Len(t, env.bus.byType(event.TypeRegistrationPromoted), 1)
}

func TestCancelFromWaitlistPromotesNobody(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 2)
	for i := 1; i <= 4; i++ {
		env.register(t, g.ShareToken, i)
	}
	env.notifier.reset()

	// player 4 is second on the waitlist
	require.NoError(t, env.public.CancelRegistration(ctx, g.ShareToken, testPhone(4)))
	assert.Empty(t, env.notifier.byType(notify.TypePromoted))

	status, err := env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(3))
	require.NoError(t, err)
	assert.False(t, status.Confirmed)
	assert.Equal(t, 1, status.WaitlistPosition)
}

func TestFullGamePromotionAtDefaultCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 10)
	for i := 1; i <= 10; i++ {
		out := env.register(t, g.ShareToken, i)
		assert.True(t, out.Confirmed, "player %d should fit", i)
	}

	view, err := env.public.PublicGame(ctx, g.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, 10, view.ConfirmedCount)
	assert.Zero(t, view.SpotsAvailable)

	eleventh := env.register(t, g.ShareToken, 11)
	assert.False(t, eleventh.Confirmed)
	assert.Equal(t, 1, eleventh.WaitlistPosition)
	env.notifier.reset()

	// A confirmed spot frees up; the sole waitlisted player takes it.
	require.NoError(t, env.public.CancelRegistration(ctx, g.ShareToken, testPhone(4)))

	promoted := env.notifier.byType(notify.TypePromoted)
	require.Len(t, promoted, 1)
	assert.Equal(t, testPhone(11), promoted[0].RecipientPhone)

	roster, err := env.games.GetRegistrations(ctx, env.adminID, g.ID)
	require.NoError(t, err)
	assert.Len(t, roster.Confirmed, 10)
	assert.Empty(t, roster.Waitlist)
	assert.Equal(t, testName(11), roster.Confirmed[9].PlayerName)
}

func TestCancelUnknownPhone(t *testing.T) {
	env := newTestEnv(t)

	g := env.createOpenGame(t, 0)
	err := env.public.CancelRegistration(context.Background(), g.ShareToken, testPhone(7))
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestCancelOutsideWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)
	env.register(t, g.ShareToken, 1)

	env.clock.Set(testKickoff.Add(-time.Hour))
	err := env.public.CancelRegistration(ctx, g.ShareToken, testPhone(1))
	var serr *game.StateError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, game.ErrCancellationNotAllowed)

	env.clock.Set(testKickoff.Add(10 * time.Minute))
	err = env.public.CancelRegistration(ctx, g.ShareToken, testPhone(1))
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, game.StatusInProgress, serr.Status)
}

func TestCancelThenRejoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)
	env.register(t, g.ShareToken, 1)
	require.NoError(t, env.public.CancelRegistration(ctx, g.ShareToken, testPhone(1)))

	// the spot is genuinely free again
	out, err := env.public.Register(ctx, g.ShareToken, testName(1), testPhone(1))
	require.NoError(t, err)
	assert.True(t, out.Confirmed)
}

func TestRegistrationStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 2)
	env.register(t, g.ShareToken, 1)
	env.register(t, g.ShareToken, 2)
	env.register(t, g.ShareToken, 3)

	t.Run("not registered is an answer", func(t *testing.T) {
		status, err := env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(9))
		require.NoError(t, err)
		assert.False(t, status.Registered)
	})

	t.Run("confirmed", func(t *testing.T) {
		status, err := env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(1))
		require.NoError(t, err)
		assert.True(t, status.Registered)
		assert.True(t, status.Confirmed)
		assert.Zero(t, status.WaitlistPosition)
		assert.Equal(t, game.PaymentPending, status.PaymentStatus)
	})

	t.Run("waitlisted with position", func(t *testing.T) {
		status, err := env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(3))
		require.NoError(t, err)
		assert.True(t, status.Registered)
		assert.False(t, status.Confirmed)
		assert.Equal(t, 1, status.WaitlistPosition)
	})

	t.Run("after team assignment", func(t *testing.T) {
		_, err := env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{Method: AssignManual, Mapping: manualMapping(t, env, g, map[int]game.TeamSide{1: game.TeamA, 2: game.TeamB})})
		require.NoError(t, err)

		status, err := env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(1))
		require.NoError(t, err)
		assert.Equal(t, game.TeamA, status.TeamAssignment)
		assert.Equal(t, "Equipo A", status.TeamName)
	})
}

func TestPublicGameUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.public.PublicGame(context.Background(), "nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestPublicGameShowsTeamsOnceAssigned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 4)
	for i := 1; i <= 4; i++ {
		env.register(t, g.ShareToken, i)
	}

	view, err := env.public.PublicGame(ctx, g.ShareToken)
	require.NoError(t, err)
	assert.Empty(t, view.TeamA)
	assert.Empty(t, view.TeamB)

	_, err = env.games.AssignTeams(ctx, env.adminID, g.ID, AssignTeamsInput{})
	require.NoError(t, err)

	view, err = env.public.PublicGame(ctx, g.ShareToken)
	require.NoError(t, err)
	assert.Len(t, view.TeamA, 2)
	assert.Len(t, view.TeamB, 2)
}

func TestPublicGameRefreshesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 0)
	env.clock.Set(g.EndsAt().Add(time.Minute))

	view, err := env.public.PublicGame(ctx, g.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, view.Status)
	assert.False(t, view.RegistrationOpen)

	stored, err := env.gameStore.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, stored.Status)
}

func TestStorageOutageSurfacesAsUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := env.createOpenGame(t, 10)
	env.register(t, g.ShareToken, 1)

	// Take storage away. Every engine operation must now report a retryable
	// outage, not a generic internal failure.
	require.NoError(t, env.db.Close())

	_, err := env.public.Register(ctx, g.ShareToken, testName(2), testPhone(2))
	require.ErrorIs(t, err, game.ErrStorageUnavailable)

	err = env.public.CancelRegistration(ctx, g.ShareToken, testPhone(1))
	require.ErrorIs(t, err, game.ErrStorageUnavailable)

	_, err = env.public.RegistrationStatus(ctx, g.ShareToken, testPhone(1))
	require.ErrorIs(t, err, game.ErrStorageUnavailable)

	_, err = env.games.GetGame(ctx, env.adminID, g.ID)
	require.ErrorIs(t, err, game.ErrStorageUnavailable)
}

// manualMapping builds an explicit side assignment keyed by player number.
func manualMapping(t *testing.T, env *testEnv, g *game.Game, sides map[int]game.TeamSide) map[string]string {
	t.Helper()

	active, err := env.regStore.ListActive(context.Background(), g.ID)
	require.NoError(t, err)

	byName := make(map[string]game.Registration, len(active))
	for _, r := range active {
		byName[r.PlayerName] = r
	}

	mapping := make(map[string]string, len(sides))
	for i, side := range sides {
		r, ok := byName[testName(i)]
		require.True(t, ok, "player %d not registered", i)
		mapping[r.ID.String()] = string(side)
	}
	return mapping
}
