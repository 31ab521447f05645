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
	defaultDurationMinutes = 90
	defaultMinPlayers      = 2
	defaultMaxPlayers      = 10
	defaultTeamAName       = "Equipo A"
	defaultTeamBName       = "Equipo B"

	maxTitleLen        = 100
	maxDurationMinutes = 24 * 60

	defaultListLimit = 20
	maxListLimit     = 100
)

// GameService owns the admin-facing lifecycle: creating and editing games,
// opening and closing registration, cancelling, team assignment, results and
// payment bookkeeping. Every method takes the acting admin's id and checks
// ownership before touching anything.
type GameService struct {
	db        *sqlx.DB
	games     *store.GameStore
	regs      *store.RegistrationStore
	results   *store.ResultStore
	owns      OwnershipChecker
	notifier  notify.Scheduler
	auditor   audit.Recorder
	auditLog  *store.AuditStore
	notifyLog *store.NotificationStore
	bus       event.Bus
	log       zerolog.Logger
	now       func() time.Time
}

// GameServiceConfig wires a GameService. Now defaults to time.Now, Bus to a
// fresh in-memory bus.
type GameServiceConfig struct {
	DB            *sqlx.DB
	Games         *store.GameStore
	Registrations *store.RegistrationStore
	Results       *store.ResultStore
	Ownership     OwnershipChecker
	Notifier      notify.Scheduler
	Auditor       audit.Recorder
	AuditLog      *store.AuditStore
	NotifyLog     *store.NotificationStore
	Bus           event.Bus
	Log           zerolog.Logger
	Now           func() time.Time
}

func NewGameService(cfg GameServiceConfig) *GameService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Bus == nil {
		cfg.Bus = event.New()
	}
	return &GameService{
		db:        cfg.DB,
		games:     cfg.Games,
		regs:      cfg.Registrations,
		results:   cfg.Results,
		owns:      cfg.Ownership,
		notifier:  cfg.Notifier,
		auditor:   cfg.Auditor,
		auditLog:  cfg.AuditLog,
		notifyLog: cfg.NotifyLog,
		bus:       cfg.Bus,
		log:       cfg.Log.With().Str("component", "games").Logger(),
		now:       cfg.Now,
	}
}

type CreateGameInput struct {
	Title           string
	ScheduledStart  time.Time
	DurationMinutes int
	MinPlayers      int
	MaxPlayers      int
	CostPerPlayer   int
	TeamAName       string
	TeamBName       string
}

// CreateGame registers a new game in draft and mints its share token. Nobody
// can join until the admin opens registration.
func (s *GameService) CreateGame(ctx context.Context, adminID uuid.UUID, in CreateGameInput) (*game.Game, error) {
	now := s.now().UTC()

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, &game.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if len(in.Title) > maxTitleLen {
		return nil, &game.ValidationError{Field: "title", Reason: "too long"}
	}
	if in.ScheduledStart.IsZero() {
		return nil, &game.ValidationError{Field: "scheduled_start", Reason: "is required"}
	}
	if !in.ScheduledStart.After(now) {
		return nil, &game.ValidationError{Field: "scheduled_start", Reason: "must be in the future"}
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = defaultDurationMinutes
	}
	if in.DurationMinutes < 1 || in.DurationMinutes > maxDurationMinutes {
		return nil, &game.ValidationError{Field: "duration_minutes", Reason: "must be between 1 and 1440"}
	}
	if in.MinPlayers == 0 {
		in.MinPlayers = defaultMinPlayers
	}
	if in.MaxPlayers == 0 {
		in.MaxPlayers = defaultMaxPlayers
	}
	if in.MinPlayers < 2 {
		return nil, &game.ValidationError{Field: "min_players", Reason: "must be at least 2"}
	}
	if in.MaxPlayers < in.MinPlayers {
		return nil, &game.ValidationError{Field: "max_players", Reason: "must not be below min_players"}
	}
	if in.CostPerPlayer < 0 {
		return nil, &game.ValidationError{Field: "cost_per_player", Reason: "must not be negative"}
	}
	if strings.TrimSpace(in.TeamAName) == "" {
		in.TeamAName = defaultTeamAName
	}
	if strings.TrimSpace(in.TeamBName) == "" {
		in.TeamBName = defaultTeamBName
	}

	g := &game.Game{
		ID:              uuid.New(),
		AdminID:         adminID,
		Title:           in.Title,
		ScheduledStart:  in.ScheduledStart.UTC(),
		DurationMinutes: in.DurationMinutes,
		MinPlayers:      in.MinPlayers,
		MaxPlayers:      in.MaxPlayers,
		CostPerPlayer:   in.CostPerPlayer,
		Status:          game.StatusDraft,
		ShareToken:      uuid.NewString(),
		TeamAName:       strings.TrimSpace(in.TeamAName),
		TeamBName:       strings.TrimSpace(in.TeamBName),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()

	if err := s.games.Create(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	s.audit(ctx, adminID.String(), audit.ActionGameCreate, g.ID, map[string]any{"title": g.Title})
	s.publish(event.TypeGameCreated, g.ID, g)
	return g, nil
}

// GameDetail is everything the admin dashboard shows for one game.
type GameDetail struct {
	Game      *game.Game
	Confirmed []game.Registration
	Waitlist  []game.Registration
	Result    *game.GameResult
}

func (s *GameService) GetGame(ctx context.Context, adminID, gameID uuid.UUID) (*GameDetail, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}

	g, err := s.refreshGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	active, err := s.regs.ListActive(ctx, gameID)
	if err != nil {
		return nil, err
	}

	result, err := s.results.Get(ctx, gameID)
	if err != nil && err != game.ErrNotFound {
		return nil, err
	}

	return &GameDetail{
		Game:      g,
		Confirmed: game.Confirmed(active, g.MaxPlayers),
		Waitlist:  game.Waitlisted(active, g.MaxPlayers),
		Result:    result,
	}, nil
}

type ListGamesInput struct {
	Status string
	From   *time.Time
	Limit  int
	Offset int
}

// ListGames returns the admin's games, newest schedule first. Stored statuses
// are refreshed against the clock before returning, so a listing never shows
// a past game as still open.
func (s *GameService) ListGames(ctx context.Context, adminID uuid.UUID, in ListGamesInput) ([]game.Game, error) {
	status, ok := game.ParseStatus(in.Status)
	if !ok {
		return nil, &game.ValidationError{Field: "status", Reason: "unknown status"}
	}
	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit < 1 || in.Limit > maxListLimit {
		return nil, &game.ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}
	if in.Offset < 0 {
		return nil, &game.ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	games, err := s.games.ListByAdmin(ctx, adminID, store.GameFilter{
		Status: status,
		From:   in.From,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var stale []int
	for i := range games {
		next, changed := game.ComputeStatus(games[i].Status, games[i].ScheduledStart, games[i].DurationMinutes, now)
		if changed {
			games[i].Status = next
			games[i].UpdatedAt = now
			stale = append(stale, i)
		}
	}

	if len(stale) > 0 {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, store.StorageErr(err)
		}
		defer tx.Rollback()
		for _, i := range stale {
			if err := s.games.UpdateStatus(ctx, tx, games[i].ID, games[i].Status, now); err != nil {
				return nil, err
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, store.StorageErr(err)
		}
		for _, i := range stale {
			s.publish(event.TypeGameStatusChanged, games[i].ID, games[i].Status)
		}
	}

	return games, nil
}

type UpdateGameInput struct {
	Title           *string
	ScheduledStart  *time.Time
	DurationMinutes *int
	MinPlayers      *int
	MaxPlayers      *int
	CostPerPlayer   *int
	TeamAName       *string
	TeamBName       *string
}

// UpdateGame applies a partial edit. Capacity can never drop below the
// number of already confirmed players; raising it promotes waitlisted
// players in arrival order, each with a promotion notice.
func (s *GameService) UpdateGame(ctx context.Context, adminID, gameID uuid.UUID, in UpdateGameInput) (*game.Game, error) {
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

	switch g.Status {
	case game.StatusDraft, game.StatusOpen, game.StatusClosed:
	default:
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	active, err := s.regs.ListActiveTx(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}

	oldMax := g.MaxPlayers
	rescheduled := false
	detailsChanged := false

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &game.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		if len(title) > maxTitleLen {
			return nil, &game.ValidationError{Field: "title", Reason: "too long"}
		}
		if title != g.Title {
			g.Title = title
			detailsChanged = true
		}
	}
	if in.ScheduledStart != nil {
		start := in.ScheduledStart.UTC()
		if !start.After(now) {
			return nil, &game.ValidationError{Field: "scheduled_start", Reason: "must be in the future"}
		}
		if !start.Equal(g.ScheduledStart) {
			g.ScheduledStart = start
			rescheduled = true
		}
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes < 1 || *in.DurationMinutes > maxDurationMinutes {
			return nil, &game.ValidationError{Field: "duration_minutes", Reason: "must be between 1 and 1440"}
		}
		if *in.DurationMinutes != g.DurationMinutes {
			g.DurationMinutes = *in.DurationMinutes
			rescheduled = true
		}
	}
	if in.MinPlayers != nil {
		if *in.MinPlayers < 2 {
			return nil, &game.ValidationError{Field: "min_players", Reason: "must be at least 2"}
		}
		g.MinPlayers = *in.MinPlayers
	}
	if in.MaxPlayers != nil {
		confirmed := len(game.Confirmed(active, oldMax))
		if *in.MaxPlayers < confirmed {
			return nil, &game.CapacityReductionError{Confirmed: confirmed, Requested: *in.MaxPlayers}
		}
		g.MaxPlayers = *in.MaxPlayers
	}
	if g.MaxPlayers < g.MinPlayers {
		return nil, &game.ValidationError{Field: "max_players", Reason: "must not be below min_players"}
	}
	if in.CostPerPlayer != nil {
		if *in.CostPerPlayer < 0 {
			return nil, &game.ValidationError{Field: "cost_per_player", Reason: "must not be negative"}
		}
		if *in.CostPerPlayer != g.CostPerPlayer {
			g.CostPerPlayer = *in.CostPerPlayer
			detailsChanged = true
		}
	}
	if in.TeamAName != nil && strings.TrimSpace(*in.TeamAName) != "" {
		g.TeamAName = strings.TrimSpace(*in.TeamAName)
	}
	if in.TeamBName != nil && strings.TrimSpace(*in.TeamBName) != "" {
		g.TeamBName = strings.TrimSpace(*in.TeamBName)
	}

	g.UpdatedAt = now
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	s.audit(ctx, adminID.String(), audit.ActionGameUpdate, g.ID, map[string]any{
		"max_players": g.MaxPlayers,
	})
	s.publish(event.TypeGameUpdated, g.ID, g)

	// Promotions first so a promoted player hears "you are in" before any
	// generic update notice.
	if g.Status == game.StatusOpen || g.Status == game.StatusClosed {
		for _, r := range game.NewlyConfirmed(active, oldMax, active, g.MaxPlayers) {
			s.schedule(ctx, notify.Intent{
				Type:           notify.TypePromoted,
				GameID:         g.ID,
				RecipientPhone: r.PlayerPhone,
				Payload:        gamePayload(g),
			})
			s.publish(event.TypeRegistrationPromoted, g.ID, r.ID)
		}
	}

	if rescheduled || detailsChanged {
		for _, r := range active {
			s.schedule(ctx, notify.Intent{
				Type:           notify.TypeGameUpdated,
				GameID:         g.ID,
				RecipientPhone: r.PlayerPhone,
				Payload:        gamePayload(g),
			})
		}
	}

	return g, nil
}

// DeleteGame removes the game and, through the schema, every registration
// with it. Players still registered to a live game get a cancellation notice.
func (s *GameService) DeleteGame(ctx context.Context, adminID, gameID uuid.UUID) error {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return err
	}

	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.StorageErr(err)
	}
	defer tx.Rollback()

	g, err := s.games.GetTx(ctx, tx, gameID)
	if err != nil {
		return err
	}
	if _, err := applyAutoTransition(ctx, tx, s.games, g, now); err != nil {
		return err
	}

	active, err := s.regs.ListActiveTx(ctx, tx, gameID)
	if err != nil {
		return err
	}

	if err := s.games.Delete(ctx, tx, gameID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return store.StorageErr(err)
	}

	if !g.Status.Terminal() {
		for _, r := range active {
			s.schedule(ctx, notify.Intent{
				Type:           notify.TypeGameCancelled,
				GameID:         g.ID,
				RecipientPhone: r.PlayerPhone,
				Payload:        gamePayload(g),
			})
		}
	}

	s.audit(ctx, adminID.String(), audit.ActionGameDelete, gameID, map[string]any{"title": g.Title})
	s.publish(event.TypeGameDeleted, gameID, nil)
	return nil
}

// OpenRegistration publishes a draft game: from here players holding the
// share link can join.
func (s *GameService) OpenRegistration(ctx context.Context, adminID, gameID uuid.UUID) (*game.Game, error) {
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

	if g.Status != game.StatusDraft {
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	if err := s.games.UpdateStatus(ctx, tx, gameID, game.StatusOpen, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	g.Status = game.StatusOpen
	g.UpdatedAt = now

	s.audit(ctx, adminID.String(), audit.ActionGameOpen, gameID, nil)
	s.publish(event.TypeGameStatusChanged, gameID, g.Status)
	return g, nil
}

// CloseRegistration stops new joins early. Only an open game can close;
// there is no way back to open.
func (s *GameService) CloseRegistration(ctx context.Context, adminID, gameID uuid.UUID) (*game.Game, error) {
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

	if g.Status != game.StatusOpen {
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	if err := s.games.UpdateStatus(ctx, tx, gameID, game.StatusClosed, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	g.Status = game.StatusClosed
	g.UpdatedAt = now

	s.audit(ctx, adminID.String(), audit.ActionGameClose, gameID, nil)
	s.publish(event.TypeGameStatusChanged, gameID, g.Status)
	return g, nil
}

// CancelGame calls the whole thing off. Works from any state the game hasn't
// already finished in; every active registrant is told, with the reason.
func (s *GameService) CancelGame(ctx context.Context, adminID, gameID uuid.UUID, reason string) (*game.Game, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)

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

	if g.Status.Terminal() {
		return nil, game.NewStateError(game.ErrInvalidStatus, g.Status)
	}

	active, err := s.regs.ListActiveTx(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}

	if err := s.games.UpdateStatus(ctx, tx, gameID, game.StatusCancelled, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	g.Status = game.StatusCancelled
	g.UpdatedAt = now

	payload := gamePayload(g)
	if reason != "" {
		payload["reason"] = reason
	}
	for _, r := range active {
		s.schedule(ctx, notify.Intent{
			Type:           notify.TypeGameCancelled,
			GameID:         g.ID,
			RecipientPhone: r.PlayerPhone,
			Payload:        payload,
		})
	}

	s.audit(ctx, adminID.String(), audit.ActionGameCancel, gameID, map[string]any{"reason": reason})
	s.publish(event.TypeGameCancelled, gameID, reason)
	return g, nil
}

// Roster is the admin's view of who is in and who is waiting.
type Roster struct {
	Confirmed []game.Registration
	Waitlist  []game.Registration
}

func (s *GameService) GetRegistrations(ctx context.Context, adminID, gameID uuid.UUID) (*Roster, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}

	g, err := s.refreshGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	active, err := s.regs.ListActive(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return &Roster{
		Confirmed: game.Confirmed(active, g.MaxPlayers),
		Waitlist:  game.Waitlisted(active, g.MaxPlayers),
	}, nil
}

// UpdatePayment flips a registration's payment marker. No money moves here;
// this is the admin's ledger of who has squared up.
func (s *GameService) UpdatePayment(ctx context.Context, adminID, gameID, regID uuid.UUID, status string) (*game.Registration, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}

	ps, ok := game.ParsePaymentStatus(status)
	if !ok {
		return nil, &game.ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}
	if ps == game.PaymentRefunded {
		return nil, &game.ValidationError{Field: "payment_status", Reason: "cancel the registration instead of marking it refunded"}
	}

	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()

	reg, err := s.regs.GetTx(ctx, tx, gameID, regID)
	if err != nil {
		return nil, err
	}

	var paidAt *time.Time
	if ps == game.PaymentPaid {
		paidAt = reg.PaidAt
		if paidAt == nil {
			paidAt = &now
		}
	}

	if err := s.regs.UpdatePayment(ctx, tx, regID, ps, paidAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	reg.PaymentStatus = ps
	reg.PaidAt = paidAt

	s.audit(ctx, adminID.String(), audit.ActionPaymentUpdate, gameID, map[string]any{
		"registration_id": regID.String(),
		"payment_status":  string(ps),
	})
	return reg, nil
}

// AuditTrail returns the newest audit entries for a game.
func (s *GameService) AuditTrail(ctx context.Context, adminID, gameID uuid.UUID, limit int) ([]store.AuditRow, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditLog.ListByEntity(ctx, audit.EntityGame, gameID.String(), limit)
}

// Notifications returns the game's outbox, pending and sent alike.
func (s *GameService) Notifications(ctx context.Context, adminID, gameID uuid.UUID) ([]notify.Notification, error) {
	if err := requireOwner(ctx, s.owns, adminID, gameID); err != nil {
		return nil, err
	}
	return s.notifyLog.ListByGame(ctx, gameID)
}

// refreshGame loads the game and persists any time-forced status change in
// its own small transaction.
func (s *GameService) refreshGame(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, store.StorageErr(err)
	}
	defer tx.Rollback()

	g, err := s.games.GetTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	changed, err := applyAutoTransition(ctx, tx, s.games, g, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.StorageErr(err)
	}

	if changed {
		s.publish(event.TypeGameStatusChanged, g.ID, g.Status)
	}
	return g, nil
}

func (s *GameService) audit(ctx context.Context, actor, action string, gameID uuid.UUID, details map[string]any) {
	err := s.auditor.Record(ctx, audit.Entry{
		At:         s.now().UTC(),
		ActorID:    actor,
		Action:     action,
		EntityType: audit.EntityGame,
		EntityID:   gameID.String(),
		Details:    details,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

func (s *GameService) schedule(ctx context.Context, intent notify.Intent) {
	if err := s.notifier.Schedule(ctx, intent); err != nil {
		s.log.Warn().Err(err).Str("type", intent.Type).Msg("notification schedule failed")
	}
}

func (s *GameService) publish(typ string, gameID uuid.UUID, data any) {
	s.bus.Publish(event.Event{Type: typ, GameID: gameID, Time: s.now().UTC(), Data: data})
}

func gamePayload(g *game.Game) map[string]any {
	return map[string]any{
		"game_title":      g.Title,
		"scheduled_start": g.ScheduledStart.Format(time.RFC3339),
	}
}
