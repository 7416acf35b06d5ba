package models

import "time"

// TournamentBooking связывает игрока с турниром. Не более одной записи
// на пару (игрок, турнир) — проверяется до списания монет.
type TournamentBooking struct {
	ID           string    `json:"id"`
	UserID       int       `json:"user_id"`
	TournamentID int       `json:"tournament_id"`
	CreatedAt    time.Time `json:"created_at"`
}
