package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/community-league/live"
	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	// EnterTournament списывает взнос и создаёт бронь участия одной
	// транзакцией: при любом отказе баланс игрока не меняется.
	EnterTournament(ctx context.Context, playerID, tournamentID int) (*models.TournamentBooking, error)
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	CreateTournamentMatch(ctx context.Context, input CreateTournamentMatchInput) (*models.TournamentMatch, error)
	UpdateTournamentMatchStatus(ctx context.Context, id int, next models.MatchStatus) (*models.TournamentMatch, error)
	FinalizeTournamentMatch(ctx context.Context, id int) (*models.TournamentMatch, error)
	// AutoAdvanceStatuses — периодический перевод турниров по датам,
	// вызывается планировщиком.
	AutoAdvanceStatuses(ctx context.Context) (int64, error)
}

type CreateTournamentInput struct {
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	CenterID    int       `json:"center_id" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	EntryFee    int       `json:"entry_fee"`
	Capacity    int       `json:"capacity"`
}

type CreateTeamInput struct {
	TournamentID int                `json:"tournament_id" validate:"required"`
	Name         string             `json:"name" validate:"required"`
	Roster       []MatchPlayerInput `json:"roster" validate:"required,min=1,dive"`
}

type CreateTournamentMatchInput struct {
	TournamentID int       `json:"tournament_id" validate:"required"`
	TeamAID      int       `json:"team_a_id" validate:"required"`
	TeamBID      int       `json:"team_b_id" validate:"required"`
	StartTime    time.Time `json:"start_time" validate:"required"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	bookingRepo    repositories.TournamentBookingRepository
	teamRepo       repositories.TeamRepository
	tmRepo         repositories.TournamentMatchRepository
	statRepo       repositories.StatRepository
	userRepo       repositories.UserRepository
	txRunner       repositories.TxRunner
	hub            LiveBroadcaster
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	bookingRepo repositories.TournamentBookingRepository,
	teamRepo repositories.TeamRepository,
	tmRepo repositories.TournamentMatchRepository,
	statRepo repositories.StatRepository,
	userRepo repositories.UserRepository,
	txRunner repositories.TxRunner,
	hub LiveBroadcaster,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		bookingRepo:    bookingRepo,
		teamRepo:       teamRepo,
		tmRepo:         tmRepo,
		statRepo:       statRepo,
		userRepo:       userRepo,
		txRunner:       txRunner,
		hub:            hub,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if !input.EndDate.After(input.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.Capacity <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.EntryFee < 0 {
		return nil, ErrTournamentInvalidFee
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		CenterID:    input.CenterID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		EntryFee:    input.EntryFee,
		Capacity:    input.Capacity,
		Status:      models.TournamentStatusRegistration,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentCenterInvalid) {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	// Связанные коллекции подтягиваются параллельно.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load tournament teams: %w", err)
		}
		tournament.Teams = dereferenceTeams(teams)
		return nil
	})

	g.Go(func() error {
		bookings, err := s.bookingRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load tournament bookings: %w", err)
		}
		tournament.Bookings = dereferenceBookings(bookings)
		return nil
	})

	g.Go(func() error {
		matches, err := s.tmRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load tournament matches: %w", err)
		}
		tournament.Matches = dereferenceTournamentMatches(matches)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournamentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) EnterTournament(ctx context.Context, playerID, tournamentID int) (*models.TournamentBooking, error) {
	player, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	if _, err := s.bookingRepo.FindByUserAndTournament(ctx, playerID, tournamentID); err == nil {
		return nil, ErrTournamentEntryConflict
	} else if !errors.Is(err, repositories.ErrTournamentBookingNotFound) {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}

	count, err := s.bookingRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tournament bookings: %w", err)
	}
	if count >= tournament.Capacity {
		return nil, ErrTournamentFull
	}

	if player.Coins < tournament.EntryFee {
		return nil, ErrInsufficientCoins
	}

	booking := &models.TournamentBooking{
		ID:           uuid.NewString(),
		UserID:       playerID,
		TournamentID: tournamentID,
	}

	// Списание и бронь фиксируются вместе; гонку двух параллельных входов
	// закрывает уникальный индекс (user_id, tournament_id), а условный
	// UPDATE не даст балансу уйти в минус.
	err = s.txRunner.RunInTx(ctx, func(q repositories.Queryer) error {
		if tournament.EntryFee > 0 {
			if err := s.userRepo.DebitCoins(ctx, q, playerID, tournament.EntryFee); err != nil {
				if errors.Is(err, repositories.ErrUserInsufficientCoins) {
					return ErrInsufficientCoins
				}
				return fmt.Errorf("failed to debit entry fee: %w", err)
			}
		}
		if err := s.bookingRepo.Create(ctx, q, booking); err != nil {
			if errors.Is(err, repositories.ErrTournamentBookingConflict) {
				return ErrTournamentEntryConflict
			}
			return fmt.Errorf("failed to create tournament booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *tournamentService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if len(input.Roster) == 0 {
		return nil, ErrTeamRosterEmpty
	}

	roster := make([]models.MatchPlayer, 0, len(input.Roster))
	for _, in := range input.Roster {
		roster = append(roster, models.MatchPlayer{UserID: in.UserID, BookingID: in.BookingID})
	}

	team := &models.Team{
		TournamentID: input.TournamentID,
		Name:         input.Name,
		Roster:       roster,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *tournamentService) CreateTournamentMatch(ctx context.Context, input CreateTournamentMatchInput) (*models.TournamentMatch, error) {
	if input.TeamAID == input.TeamBID {
		return nil, ErrMatchSameTeam
	}

	teamA, err := s.teamRepo.GetByID(ctx, nil, input.TeamAID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", input.TeamAID, err)
	}
	teamB, err := s.teamRepo.GetByID(ctx, nil, input.TeamBID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", input.TeamBID, err)
	}

	if teamA.TournamentID != input.TournamentID || teamB.TournamentID != input.TournamentID {
		return nil, ErrTeamsNotInSameTournament
	}

	match := &models.TournamentMatch{
		TournamentID: input.TournamentID,
		TeamAID:      input.TeamAID,
		TeamBID:      input.TeamBID,
		StartTime:    input.StartTime,
		Status:       models.MatchStatusUpcoming,
	}

	if err := s.tmRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrTournamentMatchTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create tournament match: %w", err)
	}
	return match, nil
}

func (s *tournamentService) UpdateTournamentMatchStatus(ctx context.Context, id int, next models.MatchStatus) (*models.TournamentMatch, error) {
	if !next.Valid() {
		return nil, ErrMatchInvalidStatus
	}

	match, err := s.tmRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentMatchNotFound) {
			return nil, ErrTournamentMatchNotFound
		}
		return nil, fmt.Errorf("failed to load tournament match: %w", err)
	}

	if !match.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrMatchInvalidStatusTransition, match.Status, next)
	}

	if err := s.tmRepo.UpdateStatus(ctx, id, next); err != nil {
		if errors.Is(err, repositories.ErrTournamentMatchNotFound) {
			return nil, ErrTournamentMatchNotFound
		}
		return nil, fmt.Errorf("failed to update tournament match status: %w", err)
	}
	match.Status = next

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.EventMatchStatusChanged, map[string]interface{}{
			"match_id": match.ID,
			"status":   match.Status,
		})
	}

	return match, nil
}

// FinalizeTournamentMatch считает результат и пишет его и на матч, и на
// обе команды в одной транзакции: частичная запись счёта невозможна.
func (s *tournamentService) FinalizeTournamentMatch(ctx context.Context, id int) (*models.TournamentMatch, error) {
	var (
		match        *models.TournamentMatch
		teamA, teamB *models.Team
		stats        []*models.PlayerMatchStat
	)

	err := s.txRunner.RunInTx(ctx, func(q repositories.Queryer) error {
		var err error
		match, err = s.tmRepo.GetByIDForUpdate(ctx, q, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentMatchNotFound) {
				return ErrTournamentMatchNotFound
			}
			return fmt.Errorf("failed to load tournament match for finalize: %w", err)
		}

		if !match.Status.CanTransitionTo(models.MatchStatusFinished) {
			return fmt.Errorf("%w: %s -> %s", ErrMatchInvalidStatusTransition, match.Status, models.MatchStatusFinished)
		}

		teamA, err = s.teamRepo.GetByID(ctx, q, match.TeamAID)
		if err != nil {
			return fmt.Errorf("failed to load team %d: %w", match.TeamAID, err)
		}
		teamB, err = s.teamRepo.GetByID(ctx, q, match.TeamBID)
		if err != nil {
			return fmt.Errorf("failed to load team %d: %w", match.TeamBID, err)
		}

		stats, err = s.statRepo.ListByTournamentMatch(ctx, q, match.ID)
		if err != nil {
			return fmt.Errorf("failed to load stats for finalize: %w", err)
		}
		if len(stats) == 0 {
			return ErrMatchStatsEmpty
		}

		teamAPoints, teamBPoints := partitionPoints(stats, teamA.RosterIDs(), teamB.RosterIDs())
		applyOutcome(teamA, teamB, teamAPoints, teamBPoints)

		match.TeamAScore = teamAPoints
		match.TeamBScore = teamBPoints
		match.WinnerTeamID = nil
		if teamA.IsWinner {
			match.WinnerTeamID = &teamA.ID
		} else if teamB.IsWinner {
			match.WinnerTeamID = &teamB.ID
		}
		match.Status = models.MatchStatusFinished

		if err := s.tmRepo.UpdateResult(ctx, q, match); err != nil {
			return fmt.Errorf("failed to save tournament match result: %w", err)
		}
		if err := s.teamRepo.UpdateScore(ctx, q, teamA.ID, teamA.MatchScore, teamA.IsWinner); err != nil {
			return fmt.Errorf("failed to save team %d score: %w", teamA.ID, err)
		}
		if err := s.teamRepo.UpdateScore(ctx, q, teamB.ID, teamB.MatchScore, teamB.IsWinner); err != nil {
			return fmt.Errorf("failed to save team %d score: %w", teamB.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Бокс-скоры подклеиваются к составам только в ответе: команды в БД
	// уже записаны без них.
	byPlayer := statsByPlayer(stats)
	attachStats(teamA.Roster, byPlayer)
	attachStats(teamB.Roster, byPlayer)

	match.TeamA = teamA
	match.TeamB = teamB

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.EventTournamentMatchFinalized, match)
	}

	return match, nil
}

func (s *tournamentService) AutoAdvanceStatuses(ctx context.Context) (int64, error) {
	return s.tournamentRepo.AutoAdvanceStatuses(ctx, time.Now())
}

func dereferenceTeams(teams []*models.Team) []models.Team {
	result := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if t != nil {
			result = append(result, *t)
		}
	}
	return result
}

func dereferenceBookings(bookings []*models.TournamentBooking) []models.TournamentBooking {
	result := make([]models.TournamentBooking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil {
			result = append(result, *b)
		}
	}
	return result
}

func dereferenceTournamentMatches(matches []*models.TournamentMatch) []models.TournamentMatch {
	result := make([]models.TournamentMatch, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			result = append(result, *m)
		}
	}
	return result
}
