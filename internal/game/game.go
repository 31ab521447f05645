package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a game. draft -> open -> closed ->
// in_progress -> completed, with cancelled reachable from any non-terminal
// state. in_progress and completed are derived from wall-clock time against
// the schedule; the rest are admin actions.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus validates a status value coming from the outside (filters,
// stored rows). The empty string is allowed so list filters can be optional.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case "", StatusDraft, StatusOpen, StatusClosed, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// PaymentStatus tracks what we know about a player's payment. No money moves
// through this system; the admin flips these by hand. refunded is a legacy
// marker from before cancellations became hard deletes and is treated as
// inactive everywhere.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

// TeamSide is a registration's team assignment.
type TeamSide string

const (
	TeamNone TeamSide = "none"
	TeamA    TeamSide = "team_a"
	TeamB    TeamSide = "team_b"
)

// Winner is the outcome of a recorded result.
type Winner string

const (
	WinnerTeamA Winner = "team_a"
	WinnerTeamB Winner = "team_b"
	WinnerDraw  Winner = "draw"
)

// WinnerFromScores derives the winning side from a final score.
func WinnerFromScores(teamA, teamB int) Winner {
	switch {
	case teamA > teamB:
		return WinnerTeamA
	case teamB > teamA:
		return WinnerTeamB
	}
	return WinnerDraw
}

type Game struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AdminID         uuid.UUID `db:"admin_id" json:"-"`
	Title           string    `db:"title" json:"title"`
	ScheduledStart  time.Time `db:"scheduled_start" json:"scheduled_start"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	MinPlayers      int       `db:"min_players" json:"min_players"`
	MaxPlayers      int       `db:"max_players" json:"max_players"`
	CostPerPlayer   int       `db:"cost_per_player" json:"cost_per_player"`
	Status          Status    `db:"status" json:"status"`
	ShareToken      string    `db:"share_token" json:"-"`
	TeamAName       string    `db:"team_a_name" json:"team_a_name"`
	TeamBName       string    `db:"team_b_name" json:"team_b_name"`

	TeamAssignedAt    *time.Time `db:"team_assigned_at" json:"team_assigned_at,omitempty"`
	ResultsRecordedAt *time.Time `db:"results_recorded_at" json:"results_recorded_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EndsAt is the scheduled end of play.
func (g *Game) EndsAt() time.Time {
	return g.ScheduledStart.Add(time.Duration(g.DurationMinutes) * time.Minute)
}

type Registration struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	GameID         uuid.UUID     `db:"game_id" json:"game_id"`
	PlayerName     string        `db:"player_name" json:"player_name"`
	PlayerPhone    string        `db:"player_phone" json:"player_phone"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	TeamAssignment TeamSide      `db:"team_assignment" json:"team_assignment"`
	RegisteredAt   time.Time     `db:"registered_at" json:"registered_at"`
	PaidAt         *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
}

// Active reports whether the registration counts toward the roster.
func (r *Registration) Active() bool {
	return r.PaymentStatus != PaymentRefunded
}

type GameResult struct {
	GameID      uuid.UUID `db:"game_id" json:"game_id"`
	TeamAScore  int       `db:"team_a_score" json:"team_a_score"`
	TeamBScore  int       `db:"team_b_score" json:"team_b_score"`
	WinningTeam Winner    `db:"winning_team" json:"winning_team"`
	Notes       string    `db:"notes" json:"notes"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

// NormalizeName collapses the parts of a player name that must not produce
// distinct registrations: surrounding whitespace and letter case.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizePhone strips the separators people type into phone numbers so the
// same number always compares equal. The leading + (international prefix) is
// kept.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
