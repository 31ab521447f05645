package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/db"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
	users "github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/user"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testKickoff is the scheduled start used throughout; the test clock begins
// two days earlier so registration windows are wide open.
var testKickoff = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database and applies migrations.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// An in-memory SQLite database lives and dies with its connection.
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")

	return database
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{t: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *testClock) Set(to time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = to
}

type captureNotifier struct {
	mu      sync.Mutex
	intents []notify.Intent
	fail    bool
}

func (n *captureNotifier) Schedule(ctx context.Context, intent notify.Intent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notifier down")
	}
	n.intents = append(n.intents, intent)
	return nil
}

func (n *captureNotifier) byType(typ string) []notify.Intent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Intent
	for _, it := range n.intents {
		if it.Type == typ {
			out = append(out, it)
		}
	}
	return out
}

func (n *captureNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = nil
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
	fail    bool
}

func (r *captureRecorder) Record(ctx context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("audit down")
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *captureRecorder) byAction(action string) []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type captureBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *captureBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBus) Subscribe(gameID uuid.UUID, buffer int) (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	close(ch)
	return ch, func() {}
}

func (b *captureBus) byType(typ string) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db       *sqlx.DB
	games    *GameService
	public   *RegistrationService
	adminID  uuid.UUID
	otherID  uuid.UUID
	clock    *testClock
	notifier *captureNotifier
	auditor  *captureRecorder
	bus      *captureBus

	gameStore *store.GameStore
	regStore  *store.RegistrationStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	userStore := store.NewUserStore(database)
	admin, err := NewUserService(database, userStore).EnsureGuestUser(ctx)
	require.NoError(t, err)

	other := &users.User{
		ID:         uuid.New(),
		Email:      "other@cancha.local",
		Username:   "Other",
		Provider:   "guest",
		ProviderID: "other",
	}
	require.NoError(t, userStore.CreateUser(ctx, other))

	clock := newTestClock(testKickoff.Add(-48 * time.Hour))
	notifier := &captureNotifier{}
	auditor := &captureRecorder{}
	bus := &captureBus{}

	gameStore := store.NewGameStore(database)
	regStore := store.NewRegistrationStore(database)

	games := NewGameService(GameServiceConfig{
		DB:            database,
		Games:         gameStore,
		Registrations: regStore,
		Results:       store.NewResultStore(database),
		Ownership:     gameStore,
		Notifier:      notifier,
		Auditor:       auditor,
		AuditLog:      store.NewAuditStore(database),
		NotifyLog:     store.NewNotificationStore(database),
		Bus:           bus,
		Log:           zerolog.Nop(),
		Now:           clock.Now,
	})
	public := NewRegistrationService(RegistrationServiceConfig{
		DB:            database,
		Games:         gameStore,
		Registrations: regStore,
		Notifier:      notifier,
		Auditor:       auditor,
		Bus:           bus,
		Log:           zerolog.Nop(),
		Now:           clock.Now,
	})

	return &testEnv{
		db:        database,
		games:     games,
		public:    public,
		adminID:   admin.ID,
		otherID:   other.ID,
		clock:     clock,
		notifier:  notifier,
		auditor:   auditor,
		bus:       bus,
		gameStore: gameStore,
		regStore:  regStore,
	}
}

// createOpenGame makes a game and opens registration on it. maxPlayers 0
// keeps the default capacity.
func (e *testEnv) createOpenGame(t *testing.T, maxPlayers int) *game.Game {
	t.Helper()

	ctx := context.Background()
	g, err := e.games.CreateGame(ctx, e.adminID, CreateGameInput{
		Title:          "Miércoles en La Cancha",
		ScheduledStart: testKickoff,
		MaxPlayers:     maxPlayers,
	})
	require.NoError(t, err)
	g, err = e.games.OpenRegistration(ctx, e.adminID, g.ID)
	require.NoError(t, err)
	return g
}

func testPhone(i int) string {
	return fmt.Sprintf("+54911%07d", 1000000+i)
}

func testName(i int) string {
	return fmt.Sprintf("Jugador %02d", i)
}

// register joins player i and fails the test on any error.
func (e *testEnv) register(t *testing.T, token string, i int) *RegistrationOutcome {
	t.Helper()

	out, err := e.public.Register(context.Background(), token, testName(i), testPhone(i))
	require.NoError(t, err)
	return out
}
