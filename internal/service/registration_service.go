package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/audit"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/event"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/game"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/notify"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/store"
	"github.com/rs/zerolog"
)

const (
	maxPlayerNameLen = 100

	minPhoneDigits = 7
	maxPhoneDigits = 15

	// DefaultRegistrationCutoff is how long before kickoff joining stops.
	DefaultRegistrationCutoff = 2 * time.Hour
	// DefaultCancellationCutoff is how long before kickoff backing out stops.
	DefaultCancellationCutoff = 2 * time.Hour
)

// RegistrationService is the share-link side of the engine: players who hold
// a game's token can see the game, join, leave, and check where they stand.
// They never authenticate; the token plus their phone number is the whole
// identity.
type RegistrationService struct {
	db           *sqlx.DB
	games        *store.GameStore
	regs         *store.RegistrationStore
	notifier     notify.Scheduler
	auditor      audit.Recorder
	bus          event.Bus
	log          zerolog.Logger
	now          func() time.Time
	regCutoff    time.Duration
	cancelCutoff time.Duration
}

type RegistrationServiceConfig struct {
	DB            *sqlx.DB
	Games         *store.GameStore
	Registrations *store.RegistrationStore
	Notifier      notify.Scheduler
	Auditor       audit.Recorder
	Bus           event.Bus
	Log           zerolog.Logger
	Now           func() time.Time

	RegistrationCutoff time.Duration
	CancellationCutoff time.Duration
}

func NewRegistrationService(cfg RegistrationServiceConfig) *RegistrationService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Bus == nil {
		cfg.Bus = event.New()
	}
	if cfg.RegistrationCutoff == 0 {
		cfg.RegistrationCutoff = DefaultRegistrationCutoff
	}
	if cfg.CancellationCutoff == 0 {
		cfg.CancellationCutoff = DefaultCancellationCutoff
	}
	return &RegistrationService{
		db:           cfg.DB,
		games:        cfg.Games,
		regs:         cfg.Registrations,
		notifier:     cfg.Notifier,
		auditor:      cfg.Auditor,
		bus:          cfg.Bus,
		log:          cfg.Log.With().Str("component", "registrations").Logger(),
		now:          cfg.Now,
		regCutoff:    cfg.RegistrationCutoff,
		cancelCutoff: cfg.CancellationCutoff,
	}
}

// PublicPlayer is the only thing one player learns about another.
type PublicPlayer struct {
	Name string `json:"name"`
}

// PublicGameView is what a share-link holder sees. No admin identity, no
// other players' phone numbers.
type PublicGameView struct {
	Title            string        `json:"title"`
	ScheduledStart   time.Time     `json:"scheduled_start"`
	DurationMinutes  int           `json:"duration_minutes"`
	CostPerPlayer    int           `json:"cost_per_player"`
	Status           game.Status   `json:"status"`
	MaxPlayers       int           `json:"max_players"`
	ConfirmedCount   int           `json:"confirmed_count"`
	SpotsAvailable   int           `json:"spots_available"`
	WaitlistSize     int           `json:"waitlist_size"`
	RegistrationOpen bool          `json:"registration_open"`
	Players          []PublicPlayer `json:"players"`
	TeamAName        string        `json:"team_a_name"`
	TeamBName        string        `json:"team_b_name"`
	TeamA            []PublicPlayer `json:"team_a,omitempty"`
	TeamB            []PublicPlayer `json:"team_b,omitempty"`
}

// PublicGame renders the game behind a share token.
func (s *RegistrationService) PublicGame(ctx context.Context, token string) (*PublicGameView, error) {
	g, err := s.refreshByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	active, err := s.regs.ListActive(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	confirmed := game.Confirmed(active, g.MaxPlayers)
	view := &PublicGameView{
		Title:            g.Title,
		ScheduledStart:   g.ScheduledStart,
		DurationMinutes:  g.DurationMinutes,
		CostPerPlayer:    g.CostPerPlayer,
		Status:           g.Status,
		MaxPlayers:       g.MaxPlayers,
		ConfirmedCount:   len(confirmed),
		SpotsAvailable:   game.SpotsAvailable(active, g.MaxPlayers),
		WaitlistSize:     len(active) - len(confirmed),
		RegistrationOpen: game.RegistrationOpen(g, s.now().UTC(), s.regCutoff),
		Players:          make([]PublicPlayer, 0, len(confirmed)),
		TeamAName:        g.TeamAName,
		TeamBName:        g.TeamBName,
	}
	for _, r := range confirmed {
		view.Players = append(view.Players, PublicPlayer{Name: r.PlayerName})
	}
	if g.TeamAssignedAt != nil {
		for _, r := range confirmed {
			switch r.TeamAssignment {
			case game.TeamA:
				view.TeamA = append(view.TeamA, PublicPlayer{Name: r.PlayerName})
			case game.TeamB:
				view.TeamB = append(view.TeamB, PublicPlayer{Name: r.PlayerName})
			}
		}
	}
	return view, nil
}

// RegistrationOutcome tells the player where they landed.
type RegistrationOutcome struct {
	Registration     *game.Registration
	Confirmed        bool
	WaitlistPosition int
}

// Register admits a player into the game behind the token. Inside capacity
// they are confirmed; beyond it they join the waitlist in arrival order. The
// same phone number (and the same name, case- and space-insensitively) can
// hold at most one spot per game.
func (s *RegistrationService) Register(ctx context.Context, token, name, phone string) (*RegistrationOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &game.ValidationError{Field: "player_name", Reason: "must not be empty"}
	}
	if len(name) > maxPlayerNameLen {
		return nil, &game.ValidationError{Field: "player_name", Reason: "too long"}
	}
	normPhone, err := normalizeValidPhone(phone)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	g, err := s.games.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()

	// Re-read inside the transaction so admission decisions run against the
	// current row, not the one the token lookup saw.
	g, err = s.games.GetTx(ctx, tx, g.ID)
	if err != nil {
		return nil, err
	}
	if _, err := applyAutoTransition(ctx, tx, s.games, g, now); err != nil {
		return nil, err
	}

	if !game.RegistrationOpen(g, now, s.regCutoff) {
		return nil, game.NewStateError(game.ErrRegistrationClosed, g.Status)
	}

	reg := &game.Registration{
		ID:             uuid.New(),
		GameID:         g.ID,
		PlayerName:     name,
		PlayerPhone:    normPhone,
		PaymentStatus:  game.PaymentPending,
		TeamAssignment: game.TeamNone,
		RegisteredAt:   now,
	}
	if err := s.regs.Create(ctx, tx, reg); err != nil {
		return nil, err
	}

	active, err := s.regs.ListActiveTx(ctx, tx, g.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	outcome := &RegistrationOutcome{Registration: reg}
	if game.IsConfirmed(active, g.MaxPlayers, reg.ID) {
		outcome.Confirmed = true
		s.schedule(ctx, notify.Intent{
			Type:           notify.TypeRegistrationConfirmed,
			GameID:         g.ID,
			RecipientPhone: normPhone,
			Payload:        gamePayload(g),
		})
	} else {
		outcome.WaitlistPosition = game.WaitlistPosition(active, g.MaxPlayers, reg.ID)
		payload := gamePayload(g)
		payload["position"] = outcome.WaitlistPosition
		s.schedule(ctx, notify.Intent{
			Type:           notify.TypeRegistrationWaitlisted,
			GameID:         g.ID,
			RecipientPhone: normPhone,
			Payload:        payload,
		})
	}

	s.audit(ctx, normPhone, audit.ActionRegister, reg.ID, map[string]any{
		"game_id":     g.ID.String(),
		"player_name": name,
		"confirmed":   outcome.Confirmed,
	})
	s.publish(event.TypeRegistrationCreated, g.ID, reg.ID)
	return outcome, nil
}

// CancelRegistration frees the player's spot. If they were confirmed, the
// head of the waitlist moves up and is told so.
func (s *RegistrationService) CancelRegistration(ctx context.Context, token, phone string) error {
	normPhone, err := normalizeValidPhone(phone)
	if err != nil {
		return err
	}

	now := s.now().UTC()

	g, err := s.games.GetByShareToken(ctx, token)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.StorageErr(err)
	}
	defer tx.Rollback()

	g, err = s.games.GetTx(ctx, tx, g.ID)
	if err != nil {
		return err
	}
	if _, err := applyAutoTransition(ctx, tx, s.games, g, now); err != nil {
		return err
	}

	if !game.CancellationOpen(g, now, s.cancelCutoff) {
		return game.NewStateError(game.ErrCancellationNotAllowed, g.Status)
	}

	before, err := s.regs.ListActiveTx(ctx, tx, g.ID)
	if err != nil {
		return err
	}
	reg, err := s.regs.GetActiveByPhoneTx(ctx, tx, g.ID, normPhone)
	if err != nil {
		return err
	}
	if err := s.regs.Delete(ctx, tx, reg.ID); err != nil {
		return err
	}
	after, err := s.regs.ListActiveTx(ctx, tx, g.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return store.StorageErr(err)
	}

	if g.Status == game.StatusOpen || g.Status == game.StatusClosed {
		for _, p := range game.NewlyConfirmed(before, g.MaxPlayers, after, g.MaxPlayers) {
			s.schedule(ctx, notify.Intent{
				Type:           notify.TypePromoted,
				GameID:         g.ID,
				RecipientPhone: p.PlayerPhone,
				Payload:        gamePayload(g),
			})
			s.publish(event.TypeRegistrationPromoted, g.ID, p.ID)
		}
	}

	s.audit(ctx, normPhone, audit.ActionUnregister, reg.ID, map[string]any{
		"game_id":       g.ID.String(),
		"was_confirmed": game.IsConfirmed(before, g.MaxPlayers, reg.ID),
	})
	s.publish(event.TypeRegistrationCancelled, g.ID, reg.ID)
	return nil
}

// RegistrationStatusView answers "am I in?".
type RegistrationStatusView struct {
	Registered       bool               `json:"registered"`
	PlayerName       string             `json:"player_name,omitempty"`
	Confirmed        bool               `json:"confirmed"`
	WaitlistPosition int                `json:"waitlist_position,omitempty"`
	PaymentStatus    game.PaymentStatus `json:"payment_status,omitempty"`
	TeamAssignment   game.TeamSide      `json:"team_assignment,omitempty"`
	TeamName         string             `json:"team_name,omitempty"`
}

// RegistrationStatus looks up where a phone number stands for the game. Not
// being registered is an answer, not an error.
func (s *RegistrationService) RegistrationStatus(ctx context.Context, token, phone string) (*RegistrationStatusView, error) {
	normPhone, err := normalizeValidPhone(phone)
	if err != nil {
		return nil, err
	}

	g, err := s.refreshByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	reg, err := s.regs.GetActiveByPhone(ctx, g.ID, normPhone)
	if err == game.ErrNotFound {
		return &RegistrationStatusView{}, nil
	}
	if err != nil {
		return nil, err
	}

	active, err := s.regs.ListActive(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	view := &RegistrationStatusView{
		Registered:     true,
		PlayerName:     reg.PlayerName,
		PaymentStatus:  reg.PaymentStatus,
		TeamAssignment: reg.TeamAssignment,
	}
	if game.IsConfirmed(active, g.MaxPlayers, reg.ID) {
		view.Confirmed = true
	} else {
		view.WaitlistPosition = game.WaitlistPosition(active, g.MaxPlayers, reg.ID)
	}
	switch reg.TeamAssignment {
	case game.TeamA:
		view.TeamName = g.TeamAName
	case game.TeamB:
		view.TeamName = g.TeamBName
	}
	return view, nil
}

// refreshByToken resolves a share token and persists any time-forced status
// change. The write happens only when the status actually moved, so plain
// lookups stay read-only.
func (s *RegistrationService) refreshByToken(ctx context.Context, token string) (*game.Game, error) {
	g, err := s.games.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	next, changed := game.ComputeStatus(g.Status, g.ScheduledStart, g.DurationMinutes, now)
	if !changed {
		return g, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()
	if err := s.games.UpdateStatus(ctx, tx, g.ID, next, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	g.Status = next
	g.UpdatedAt = now
	s.publish(event.TypeGameStatusChanged, g.ID, g.Status)
	return g, nil
}

func normalizeValidPhone(phone string) (string, error) {
	norm := game.NormalizePhone(phone)
	digits := strings.TrimPrefix(norm, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", &game.ValidationError{Field: "player_phone", Reason: "must be a valid phone number"}
	}
	return norm, nil
}

func (s *RegistrationService) audit(ctx context.Context, actor, action string, regID uuid.UUID, details map[string]any) {
	err := s.auditor.Record(ctx, audit.Entry{
		At:         s.now().UTC(),
		ActorID:    actor,
		Action:     action,
		EntityType: audit.EntityRegistration,
		EntityID:   regID.String(),
		Details:    details,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

func (s *RegistrationService) schedule(ctx context.Context, intent notify.Intent) {
	if err := s.notifier.Schedule(ctx, intent); err != nil {
		s.log.Warn().Err(err).Str("type", intent.Type).Msg("notification schedule failed")
	}
}

func (s *RegistrationService) publish(typ string, gameID uuid.UUID, data any) {
	s.bus.Publish(event.Event{Type: typ, GameID: gameID, Time: s.now().UTC(), Data: data})
}
