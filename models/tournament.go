package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentStatusSoon         TournamentStatus = "soon"
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusActive       TournamentStatus = "active"
	TournamentStatusCompleted    TournamentStatus = "completed"
	TournamentStatusCanceled     TournamentStatus = "canceled"
)

// Tournament — многоматчевое соревнование с постоянными командами и
// взносом за участие (списывается с баланса монет игрока).
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	CenterID    int              `json:"center_id" db:"center_id"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     time.Time        `json:"end_date" db:"end_date"`
	EntryFee    int              `json:"entry_fee" db:"entry_fee"`
	Capacity    int              `json:"capacity" db:"capacity"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Center   *CommunityCenter    `json:"center,omitempty" db:"-"`
	Teams    []Team              `json:"teams,omitempty" db:"-"`
	Bookings []TournamentBooking `json:"bookings,omitempty" db:"-"`
	Matches  []TournamentMatch   `json:"matches,omitempty" db:"-"`
}

// TournamentMatch — матч турнира. В отличие от обычного матча команды не
// встроены, а ссылаются на самостоятельные сущности Team, потому что
// турнирные команды живут дольше одного матча.
type TournamentMatch struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	TeamAID      int         `json:"team_a_id" db:"team_a_id"`
	TeamBID      int         `json:"team_b_id" db:"team_b_id"`
	StartTime    time.Time   `json:"start_time" db:"start_time"`
	Status       MatchStatus `json:"status" db:"status"`
	TeamAScore   int         `json:"team_a_score" db:"team_a_score"`
	TeamBScore   int         `json:"team_b_score" db:"team_b_score"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}
