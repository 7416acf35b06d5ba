package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
)

type StatService interface {
	RecordMatchStat(ctx context.Context, input StatInput) (*models.PlayerMatchStat, error)
	RecordTournamentMatchStat(ctx context.Context, input StatInput) (*models.PlayerMatchStat, error)
	ListMatchStats(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error)
	ListTournamentMatchStats(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error)
}

type StatInput struct {
	MatchID                int `json:"match_id" validate:"required"`
	PlayerID               int `json:"player_id" validate:"required"`
	PointsScored           int `json:"points_scored" validate:"min=0"`
	Rebounds               int `json:"rebounds" validate:"min=0"`
	Assists                int `json:"assists" validate:"min=0"`
	Steals                 int `json:"steals" validate:"min=0"`
	Blocks                 int `json:"blocks" validate:"min=0"`
	Turnovers              int `json:"turnovers" validate:"min=0"`
	FieldGoalsMade         int `json:"field_goals_made" validate:"min=0"`
	FieldGoalsAttempted    int `json:"field_goals_attempted" validate:"min=0"`
	ThreePointersMade      int `json:"three_pointers_made" validate:"min=0"`
	ThreePointersAttempted int `json:"three_pointers_attempted" validate:"min=0"`
	FreeThrowsMade         int `json:"free_throws_made" validate:"min=0"`
	FreeThrowsAttempted    int `json:"free_throws_attempted" validate:"min=0"`
	MinutesPlayed          int `json:"minutes_played" validate:"min=0"`
}

type statService struct {
	statRepo  repositories.StatRepository
	matchRepo repositories.MatchRepository
	tmRepo    repositories.TournamentMatchRepository
	teamRepo  repositories.TeamRepository
}

func NewStatService(
	statRepo repositories.StatRepository,
	matchRepo repositories.MatchRepository,
	tmRepo repositories.TournamentMatchRepository,
	teamRepo repositories.TeamRepository,
) StatService {
	return &statService{
		statRepo:  statRepo,
		matchRepo: matchRepo,
		tmRepo:    tmRepo,
		teamRepo:  teamRepo,
	}
}

func (s *statService) RecordMatchStat(ctx context.Context, input StatInput) (*models.PlayerMatchStat, error) {
	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match for stat: %w", err)
	}

	if !containsPlayer(match.TeamA.Roster(), input.PlayerID) && !containsPlayer(match.TeamB.Roster(), input.PlayerID) {
		return nil, fmt.Errorf("%w: player %d, match %d", ErrStatPlayerNotInMatch, input.PlayerID, input.MatchID)
	}

	stat := statFromInput(input)
	if err := s.statRepo.UpsertMatchStat(ctx, stat); err != nil {
		if errors.Is(err, repositories.ErrStatMatchInvalid) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to save match stat: %w", err)
	}
	return stat, nil
}

func (s *statService) RecordTournamentMatchStat(ctx context.Context, input StatInput) (*models.PlayerMatchStat, error) {
	match, err := s.tmRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentMatchNotFound) {
			return nil, ErrTournamentMatchNotFound
		}
		return nil, fmt.Errorf("failed to load tournament match for stat: %w", err)
	}

	teamA, err := s.teamRepo.GetByID(ctx, nil, match.TeamAID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %d: %w", match.TeamAID, err)
	}
	teamB, err := s.teamRepo.GetByID(ctx, nil, match.TeamBID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %d: %w", match.TeamBID, err)
	}

	if !containsPlayer(teamA.RosterIDs(), input.PlayerID) && !containsPlayer(teamB.RosterIDs(), input.PlayerID) {
		return nil, fmt.Errorf("%w: player %d, tournament match %d", ErrStatPlayerNotInMatch, input.PlayerID, input.MatchID)
	}

	stat := statFromInput(input)
	if err := s.statRepo.UpsertTournamentMatchStat(ctx, stat); err != nil {
		if errors.Is(err, repositories.ErrStatMatchInvalid) {
			return nil, ErrTournamentMatchNotFound
		}
		return nil, fmt.Errorf("failed to save tournament match stat: %w", err)
	}
	return stat, nil
}

func (s *statService) ListMatchStats(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	stats, err := s.statRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match stats: %w", err)
	}
	return stats, nil
}

func (s *statService) ListTournamentMatchStats(ctx context.Context, matchID int) ([]*models.PlayerMatchStat, error) {
	stats, err := s.statRepo.ListByTournamentMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament match stats: %w", err)
	}
	return stats, nil
}

func statFromInput(input StatInput) *models.PlayerMatchStat {
	return &models.PlayerMatchStat{
		MatchID:                input.MatchID,
		PlayerID:               input.PlayerID,
		PointsScored:           input.PointsScored,
		Rebounds:               input.Rebounds,
		Assists:                input.Assists,
		Steals:                 input.Steals,
		Blocks:                 input.Blocks,
		Turnovers:              input.Turnovers,
		FieldGoalsMade:         input.FieldGoalsMade,
		FieldGoalsAttempted:    input.FieldGoalsAttempted,
		ThreePointersMade:      input.ThreePointersMade,
		ThreePointersAttempted: input.ThreePointersAttempted,
		FreeThrowsMade:         input.FreeThrowsMade,
		FreeThrowsAttempted:    input.FreeThrowsAttempted,
		MinutesPlayed:          input.MinutesPlayed,
	}
}

func containsPlayer(roster []int, playerID int) bool {
	for _, id := range roster {
		if id == playerID {
			return true
		}
	}
	return false
}
