package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed             = errors.New("validation failed")
	ErrPasswordTooShort             = errors.New("password is too short")
	ErrTeamRosterEmpty              = errors.New("team roster must not be empty")
	ErrPlayerInBothTeams            = errors.New("player appears in both teams")
	ErrMatchInvalidStatus           = errors.New("invalid match status provided")
	ErrMatchInvalidStatusTransition = errors.New("invalid match status transition")
	ErrMatchStatsEmpty              = errors.New("match has no recorded player stats")
	ErrStatPlayerNotInMatch         = errors.New("player is not on either roster of the match")
	ErrInsufficientCoins            = errors.New("insufficient coin balance")
	ErrTopUpInvalidAmount           = errors.New("top-up amount must be positive")
	ErrPromoExpired                 = errors.New("promo code has expired")
	ErrPromoUsageLimit              = errors.New("promo code usage limit reached")
	ErrPromoInvalidDiscount         = errors.New("promo discount must be between 1 and 100 percent")
	ErrPromoInvalidUsageCap         = errors.New("promo max usage must be positive")
	ErrTournamentFull               = errors.New("tournament is full")
	ErrTournamentInvalidDateRange   = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity    = errors.New("tournament capacity must be positive")
	ErrTournamentInvalidFee         = errors.New("tournament entry fee must not be negative")
	ErrTeamsNotInSameTournament     = errors.New("teams belong to different tournaments")
	ErrMatchSameTeam                = errors.New("a team cannot play against itself")
	ErrSlotNotFound                 = errors.New("time slot not found in center schedule")

	// Ошибки конфликтов
	ErrUserEmailConflict         = errors.New("email address is already in use")
	ErrTournamentEntryConflict   = errors.New("player is already booked for this tournament")
	ErrPromoCodeConflict         = errors.New("promo code already exists")

	// Ошибки аутентификации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")

	// Ошибки, специфичные для сущностей (дублируют ErrNotFound, но дают больше контекста)
	ErrUserNotFound            = errors.New("user not found")
	ErrCenterNotFound          = errors.New("community center not found")
	ErrMatchNotFound           = errors.New("match not found")
	ErrTeamNotFound            = errors.New("team not found")
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentMatchNotFound = errors.New("tournament match not found")
	ErrPromoNotFound           = errors.New("promo code not found")
)
