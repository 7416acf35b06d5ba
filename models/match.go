package models

import "time"

// MatchStatus представляет статусы матча, соответствующие ENUM в БД.
type MatchStatus string

const (
	MatchStatusUpcoming  MatchStatus = "upcoming"
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusDelayed   MatchStatus = "delayed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusPostponed MatchStatus = "postponed"
	MatchStatusOvertime  MatchStatus = "overtime"
	MatchStatusHalfTime  MatchStatus = "half_time"
)

// matchStatusTransitions — замкнутая таблица допустимых переходов.
// Переход в тот же статус всегда разрешён (no-op).
var matchStatusTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusUpcoming:  {MatchStatusOngoing, MatchStatusDelayed, MatchStatusCancelled, MatchStatusPostponed},
	MatchStatusOngoing:   {MatchStatusFinished, MatchStatusDelayed, MatchStatusCancelled, MatchStatusPostponed, MatchStatusOvertime, MatchStatusHalfTime},
	MatchStatusHalfTime:  {MatchStatusOngoing, MatchStatusCancelled},
	MatchStatusOvertime:  {MatchStatusFinished, MatchStatusCancelled},
	MatchStatusDelayed:   {MatchStatusOngoing, MatchStatusCancelled, MatchStatusPostponed},
	MatchStatusPostponed: {MatchStatusUpcoming, MatchStatusCancelled},
	MatchStatusFinished:  {},
	MatchStatusCancelled: {},
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusUpcoming, MatchStatusOngoing, MatchStatusFinished,
		MatchStatusDelayed, MatchStatusCancelled, MatchStatusPostponed,
		MatchStatusOvertime, MatchStatusHalfTime:
		return true
	}
	return false
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range matchStatusTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// MatchPlayer — запись состава: игрок, его бронирование слота и набранные очки.
type MatchPlayer struct {
	UserID    int    `json:"user_id"`
	BookingID string `json:"booking_id,omitempty"`
	Score     int    `json:"score"`

	// Заполняются при сборке read-модели, в БД не хранятся.
	User *User            `json:"user,omitempty" db:"-"`
	Stat *PlayerMatchStat `json:"stat,omitempty" db:"-"`
}

// MatchTeam — команда, встроенная в матч (живёт и сохраняется вместе с ним).
type MatchTeam struct {
	Players    []MatchPlayer `json:"players"`
	MatchScore int           `json:"match_score"`
	IsWinner   bool          `json:"is_winner"`
}

func (t *MatchTeam) Roster() []int {
	ids := make([]int, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (t *MatchTeam) SetScore(points int) { t.MatchScore = points }

func (t *MatchTeam) SetWinner(winner bool) { t.IsWinner = winner }

// Match — обычный матч с двумя встроенными командами.
// Инвариант создания: один пользователь не может быть в обеих командах.
type Match struct {
	ID        int         `json:"id" db:"id"`
	CenterID  int         `json:"center_id" db:"center_id"`
	StartTime time.Time   `json:"start_time" db:"start_time"`
	Status    MatchStatus `json:"status" db:"status"`
	TeamA     MatchTeam   `json:"team_a" db:"team_a"`
	TeamB     MatchTeam   `json:"team_b" db:"team_b"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`

	Center *CommunityCenter `json:"center,omitempty" db:"-"`
}
