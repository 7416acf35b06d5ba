package models

import "time"

// Team — турнирная команда. Счёт и флаг победителя накапливаются между
// матчами, поэтому команда хранится отдельно от матча.
type Team struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	Name         string        `json:"name" db:"name"`
	Roster       []MatchPlayer `json:"roster" db:"roster"`
	MatchScore   int           `json:"match_score" db:"match_score"`
	IsWinner     bool          `json:"is_winner" db:"is_winner"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

func (t *Team) RosterIDs() []int {
	ids := make([]int, 0, len(t.Roster))
	for _, p := range t.Roster {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (t *Team) SetScore(points int) { t.MatchScore = points }

func (t *Team) SetWinner(winner bool) { t.IsWinner = winner }
