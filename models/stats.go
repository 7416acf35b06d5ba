package models

import "time"

// PlayerMatchStat — бокс-скор одного игрока в одном матче.
// Не более одной записи на пару (игрок, матч); для движка подсчёта
// очков записи доступны только на чтение.
type PlayerMatchStat struct {
	ID       int `json:"id"`
	MatchID  int `json:"match_id"`
	PlayerID int `json:"player_id"`

	PointsScored           int `json:"points_scored"`
	Rebounds               int `json:"rebounds"`
	Assists                int `json:"assists"`
	Steals                 int `json:"steals"`
	Blocks                 int `json:"blocks"`
	Turnovers              int `json:"turnovers"`
	FieldGoalsMade         int `json:"field_goals_made"`
	FieldGoalsAttempted    int `json:"field_goals_attempted"`
	ThreePointersMade      int `json:"three_pointers_made"`
	ThreePointersAttempted int `json:"three_pointers_attempted"`
	FreeThrowsMade         int `json:"free_throws_made"`
	FreeThrowsAttempted    int `json:"free_throws_attempted"`
	MinutesPlayed          int `json:"minutes_played"`

	CreatedAt time.Time `json:"created_at"`
}
