package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/community-league/live"
	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"golang.org/x/sync/errgroup"
)

// LiveBroadcaster — трансляция событий матча подписчикам комнаты.
// Реализуется live.Hub; nil отключает трансляцию.
type LiveBroadcaster interface {
	BroadcastToRoom(roomID, eventType string, payload interface{})
}

// assignBookingsDelay — отсрочка сверки бронирований после создания
// матча. Сверка идёт в фоне и не влияет на ответ клиенту.
const assignBookingsDelay = 5 * time.Second

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatchByID(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id int, next models.MatchStatus) (*models.Match, error)
	// FinalizeMatch агрегирует бокс-скоры в командные суммы, определяет
	// победителя и переводит матч в finished одним сохранением.
	FinalizeMatch(ctx context.Context, id int) (*models.Match, error)
}

type CreateMatchInput struct {
	CenterID  int                `json:"center_id" validate:"required"`
	StartTime time.Time          `json:"start_time" validate:"required"`
	TeamA     []MatchPlayerInput `json:"team_a" validate:"required,min=1,dive"`
	TeamB     []MatchPlayerInput `json:"team_b" validate:"required,min=1,dive"`
}

type MatchPlayerInput struct {
	UserID    int    `json:"user_id" validate:"required"`
	BookingID string `json:"booking_id"`
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	centerRepo repositories.CenterRepository
	statRepo   repositories.StatRepository
	userRepo   repositories.UserRepository
	txRunner   repositories.TxRunner
	centers    CenterService
	tasks      TaskQueue
	notifier   Notifier
	hub        LiveBroadcaster
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	centerRepo repositories.CenterRepository,
	statRepo repositories.StatRepository,
	userRepo repositories.UserRepository,
	txRunner repositories.TxRunner,
	centers CenterService,
	tasks TaskQueue,
	notifier Notifier,
	hub LiveBroadcaster,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		centerRepo: centerRepo,
		statRepo:   statRepo,
		userRepo:   userRepo,
		txRunner:   txRunner,
		centers:    centers,
		tasks:      tasks,
		notifier:   notifier,
		hub:        hub,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if len(input.TeamA) == 0 || len(input.TeamB) == 0 {
		return nil, ErrTeamRosterEmpty
	}

	teamA := buildMatchTeam(input.TeamA)
	teamB := buildMatchTeam(input.TeamB)

	if overlap := rosterOverlap(teamA.Roster(), teamB.Roster()); len(overlap) > 0 {
		return nil, fmt.Errorf("%w: user %d", ErrPlayerInBothTeams, overlap[0])
	}

	match := &models.Match{
		CenterID:  input.CenterID,
		StartTime: input.StartTime,
		Status:    models.MatchStatusUpcoming,
		TeamA:     teamA,
		TeamB:     teamB,
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchCenterInvalid) {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.enqueueBookingReconciliation(match)

	return match, nil
}

// enqueueBookingReconciliation ставит отложенную сверку бронирований.
// Её сбой логируется очередью и не откатывает созданный матч.
func (s *matchService) enqueueBookingReconciliation(match *models.Match) {
	if s.tasks == nil || s.centers == nil {
		return
	}

	bookingIDs := make([]string, 0, len(match.TeamA.Players)+len(match.TeamB.Players))
	for _, p := range match.TeamA.Players {
		if p.BookingID != "" {
			bookingIDs = append(bookingIDs, p.BookingID)
		}
	}
	for _, p := range match.TeamB.Players {
		if p.BookingID != "" {
			bookingIDs = append(bookingIDs, p.BookingID)
		}
	}
	if len(bookingIDs) == 0 {
		return
	}

	centerID := match.CenterID
	s.tasks.SubmitAfter(assignBookingsDelay, "assign_bookings", func(ctx context.Context) error {
		return s.centers.AssignBookings(ctx, centerID, bookingIDs)
	})
}

func (s *matchService) GetMatchByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if err := s.populateMatchDetails(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// populateMatchDetails собирает read-модель: центр, профили игроков и
// их бокс-скоры подтягиваются параллельно.
func (s *matchService) populateMatchDetails(ctx context.Context, match *models.Match) error {
	g, gctx := errgroup.WithContext(ctx)

	var stats []*models.PlayerMatchStat
	g.Go(func() error {
		var err error
		stats, err = s.statRepo.ListByMatch(gctx, nil, match.ID)
		if err != nil {
			return fmt.Errorf("failed to load match stats: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		center, err := s.centerRepo.GetByID(gctx, match.CenterID)
		if err != nil {
			if errors.Is(err, repositories.ErrCenterNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load match center: %w", err)
		}
		match.Center = center
		return nil
	})

	users := make(map[int]*models.User)
	var usersErr error
	g.Go(func() error {
		users, usersErr = s.loadUsers(gctx, append(match.TeamA.Roster(), match.TeamB.Roster()...))
		return usersErr
	})

	if err := g.Wait(); err != nil {
		return err
	}

	byPlayer := statsByPlayer(stats)
	attachStats(match.TeamA.Players, byPlayer)
	attachStats(match.TeamB.Players, byPlayer)
	attachUsers(match.TeamA.Players, users)
	attachUsers(match.TeamB.Players, users)
	return nil
}

func (s *matchService) loadUsers(ctx context.Context, ids []int) (map[int]*models.User, error) {
	users := make(map[int]*models.User, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load user %d: %w", id, err)
		}
		user.PasswordHash = ""
		users[id] = user
	}
	return users, nil
}

func (s *matchService) ListMatches(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	if status != nil && !status.Valid() {
		return nil, ErrMatchInvalidStatus
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	matches, err := s.matchRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) UpdateMatchStatus(ctx context.Context, id int, next models.MatchStatus) (*models.Match, error) {
	if !next.Valid() {
		return nil, ErrMatchInvalidStatus
	}

	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	if !match.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrMatchInvalidStatusTransition, match.Status, next)
	}

	previous := match.Status
	if err := s.matchRepo.UpdateStatus(ctx, id, next); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}
	match.Status = next

	if next == models.MatchStatusOngoing && previous != models.MatchStatusOngoing {
		s.enqueuePaymentNotice(match)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.MatchRoom(match.ID), live.EventMatchStatusChanged, map[string]interface{}{
			"match_id": match.ID,
			"status":   match.Status,
		})
	}

	return match, nil
}

// enqueuePaymentNotice рассылает игрокам счёт за площадку после перехода
// матча в ongoing. Доставка с ограниченными повторами.
func (s *matchService) enqueuePaymentNotice(match *models.Match) {
	if s.tasks == nil || s.notifier == nil {
		return
	}

	matchID := match.ID
	centerID := match.CenterID
	startTime := match.StartTime
	roster := append(match.TeamA.Roster(), match.TeamB.Roster()...)

	s.tasks.SubmitWithRetry("match_payment_notice", 3, 15*time.Second, func(ctx context.Context) error {
		center, err := s.centerRepo.GetByID(ctx, centerID)
		if err != nil {
			return fmt.Errorf("failed to load center for payment notice (match %d): %w", matchID, err)
		}

		body, err := MatchInvoiceEmailBody(center.Name, center.Price, startTime)
		if err != nil {
			return err
		}

		for _, userID := range roster {
			user, err := s.userRepo.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					continue
				}
				return err
			}
			if err := s.notifier.Send(ctx, user.Email, "Счёт за аренду площадки", body); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *matchService) FinalizeMatch(ctx context.Context, id int) (*models.Match, error) {
	var (
		match *models.Match
		stats []*models.PlayerMatchStat
	)

	err := s.txRunner.RunInTx(ctx, func(q repositories.Queryer) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, q, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match for finalize: %w", err)
		}

		if !match.Status.CanTransitionTo(models.MatchStatusFinished) {
			return fmt.Errorf("%w: %s -> %s", ErrMatchInvalidStatusTransition, match.Status, models.MatchStatusFinished)
		}

		stats, err = s.statRepo.ListByMatch(ctx, q, match.ID)
		if err != nil {
			return fmt.Errorf("failed to load stats for finalize: %w", err)
		}
		if len(stats) == 0 {
			// Статус матча не меняется: финализировать нечего.
			return ErrMatchStatsEmpty
		}

		teamAPoints, teamBPoints := partitionPoints(stats, match.TeamA.Roster(), match.TeamB.Roster())
		applyOutcome(&match.TeamA, &match.TeamB, teamAPoints, teamBPoints)

		match.Status = models.MatchStatusFinished
		return s.matchRepo.UpdateResult(ctx, q, match)
	})
	if err != nil {
		return nil, err
	}

	// Бокс-скоры подклеиваются к составам только в ответе, после записи:
	// в JSONB-колонки team_a/team_b агрегат уходит без статистики.
	byPlayer := statsByPlayer(stats)
	attachStats(match.TeamA.Players, byPlayer)
	attachStats(match.TeamB.Players, byPlayer)

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.MatchRoom(match.ID), live.EventMatchFinalized, match)
	}

	return match, nil
}

func buildMatchTeam(inputs []MatchPlayerInput) models.MatchTeam {
	players := make([]models.MatchPlayer, 0, len(inputs))
	for _, in := range inputs {
		players = append(players, models.MatchPlayer{
			UserID:    in.UserID,
			BookingID: in.BookingID,
		})
	}
	return models.MatchTeam{Players: players}
}

func rosterOverlap(rosterA, rosterB []int) []int {
	inA := make(map[int]bool, len(rosterA))
	for _, id := range rosterA {
		inA[id] = true
	}
	overlap := make([]int, 0)
	for _, id := range rosterB {
		if inA[id] {
			overlap = append(overlap, id)
		}
	}
	return overlap
}

func attachUsers(players []models.MatchPlayer, users map[int]*models.User) {
	for i := range players {
		if user, ok := users[players[i].UserID]; ok {
			players[i].User = user
		}
	}
}
