package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatchService(
	matchRepo repositories.MatchRepository,
	statRepo repositories.StatRepository,
	centers CenterService,
	tasks TaskQueue,
	hub LiveBroadcaster,
) MatchService {
	return NewMatchService(matchRepo, nil, statRepo, nil, &fakeTxRunner{}, centers, tasks, nil, hub)
}

func TestCreateMatchRejectsOverlappingRosters(t *testing.T) {
	svc := newTestMatchService(nil, nil, nil, nil, nil)

	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		CenterID:  1,
		StartTime: time.Now(),
		TeamA:     []MatchPlayerInput{{UserID: 1}, {UserID: 2}},
		TeamB:     []MatchPlayerInput{{UserID: 2}, {UserID: 3}},
	})

	require.ErrorIs(t, err, ErrPlayerInBothTeams)
}

func TestCreateMatchRejectsEmptyRoster(t *testing.T) {
	svc := newTestMatchService(nil, nil, nil, nil, nil)

	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		CenterID:  1,
		StartTime: time.Now(),
		TeamA:     []MatchPlayerInput{{UserID: 1}},
		TeamB:     nil,
	})

	require.ErrorIs(t, err, ErrTeamRosterEmpty)
}

type recordingCenterService struct {
	CenterService
	assignedCenter int
	assignedIDs    []string
}

func (r *recordingCenterService) AssignBookings(ctx context.Context, centerID int, bookingIDs []string) error {
	r.assignedCenter = centerID
	r.assignedIDs = bookingIDs
	return nil
}

func TestCreateMatchEnqueuesDeferredReconciliation(t *testing.T) {
	matchRepo := &fakeMatchRepo{
		create: func(ctx context.Context, match *models.Match) error {
			match.ID = 42
			return nil
		},
	}
	queue := &fakeTaskQueue{run: true}
	centers := &recordingCenterService{}

	svc := newTestMatchService(matchRepo, nil, centers, queue, nil)

	match, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		CenterID:  7,
		StartTime: time.Now(),
		TeamA:     []MatchPlayerInput{{UserID: 1, BookingID: "bk-1"}},
		TeamB:     []MatchPlayerInput{{UserID: 2, BookingID: "bk-2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusUpcoming, match.Status)

	require.Equal(t, []string{"assign_bookings"}, queue.submitted)
	require.Equal(t, []time.Duration{assignBookingsDelay}, queue.delays)
	assert.Equal(t, 7, centers.assignedCenter)
	assert.Equal(t, []string{"bk-1", "bk-2"}, centers.assignedIDs)
}

func TestUpdateMatchStatusRejectsInvalidTransition(t *testing.T) {
	matchRepo := &fakeMatchRepo{
		getByID: func(ctx context.Context, id int) (*models.Match, error) {
			return &models.Match{ID: id, Status: models.MatchStatusFinished}, nil
		},
	}

	svc := newTestMatchService(matchRepo, nil, nil, nil, nil)

	_, err := svc.UpdateMatchStatus(context.Background(), 1, models.MatchStatusOngoing)
	require.ErrorIs(t, err, ErrMatchInvalidStatusTransition)
}

func TestUpdateMatchStatusToOngoingEnqueuesPaymentNotice(t *testing.T) {
	var savedStatus models.MatchStatus
	matchRepo := &fakeMatchRepo{
		getByID: func(ctx context.Context, id int) (*models.Match, error) {
			return &models.Match{
				ID:       id,
				CenterID: 3,
				Status:   models.MatchStatusUpcoming,
				TeamA:    models.MatchTeam{Players: []models.MatchPlayer{{UserID: 1}}},
				TeamB:    models.MatchTeam{Players: []models.MatchPlayer{{UserID: 2}}},
			}, nil
		},
		updateStatus: func(ctx context.Context, id int, status models.MatchStatus) error {
			savedStatus = status
			return nil
		},
	}
	queue := &fakeTaskQueue{}
	hub := &fakeBroadcaster{}

	svc := NewMatchService(matchRepo, nil, nil, nil, &fakeTxRunner{}, nil, queue, &fakeNotifier{}, hub)

	match, err := svc.UpdateMatchStatus(context.Background(), 5, models.MatchStatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, match.Status)
	assert.Equal(t, models.MatchStatusOngoing, savedStatus)

	require.Equal(t, []string{"match_payment_notice"}, queue.submitted)
	require.Equal(t, []string{"match_5"}, hub.rooms)
}

func TestFinalizeMatchComputesWinner(t *testing.T) {
	stored := &models.Match{
		ID:     1,
		Status: models.MatchStatusOngoing,
		TeamA:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 1}, {UserID: 2}}},
		TeamB:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 3}}},
	}
	var saved *models.Match
	matchRepo := &fakeMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
			return stored, nil
		},
		updateResult: func(ctx context.Context, q repositories.Queryer, match *models.Match) error {
			saved = match
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return []*models.PlayerMatchStat{
				{PlayerID: 1, PointsScored: 11},
				{PlayerID: 2, PointsScored: 5},
				{PlayerID: 3, PointsScored: 9},
			}, nil
		},
	}
	hub := &fakeBroadcaster{}

	svc := newTestMatchService(matchRepo, statRepo, nil, nil, hub)

	match, err := svc.FinalizeMatch(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, models.MatchStatusFinished, match.Status)
	assert.Equal(t, 16, match.TeamA.MatchScore)
	assert.Equal(t, 9, match.TeamB.MatchScore)
	assert.True(t, match.TeamA.IsWinner)
	assert.False(t, match.TeamB.IsWinner)

	// Очки игроков подставлены в состав ответа.
	assert.Equal(t, 11, match.TeamA.Players[0].Score)
	assert.Equal(t, 5, match.TeamA.Players[1].Score)
	require.NotNil(t, match.TeamA.Players[0].Stat)
	assert.Equal(t, 9, match.TeamB.Players[0].Score)

	require.Equal(t, []string{"match_1"}, hub.rooms)
}

func TestFinalizeMatchPersistsTeamsWithoutStatDetail(t *testing.T) {
	stored := &models.Match{
		ID:     3,
		Status: models.MatchStatusOngoing,
		TeamA:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 1}}},
		TeamB:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 2}}},
	}
	// Снимки JSON в момент записи: репозиторий сериализует команды в
	// JSONB именно тогда.
	var persisted []string
	matchRepo := &fakeMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
			return stored, nil
		},
		updateResult: func(ctx context.Context, q repositories.Queryer, match *models.Match) error {
			for _, team := range []models.MatchTeam{match.TeamA, match.TeamB} {
				raw, err := json.Marshal(team)
				require.NoError(t, err)
				persisted = append(persisted, string(raw))
			}
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return []*models.PlayerMatchStat{
				{PlayerID: 1, PointsScored: 5},
				{PlayerID: 2, PointsScored: 3},
			}, nil
		},
	}

	svc := newTestMatchService(matchRepo, statRepo, nil, nil, nil)

	match, err := svc.FinalizeMatch(context.Background(), 3)
	require.NoError(t, err)

	// Бокс-скор есть в ответе, но не в сохранённом агрегате.
	require.NotNil(t, match.TeamA.Players[0].Stat)
	require.Len(t, persisted, 2)
	for _, raw := range persisted {
		assert.NotContains(t, raw, `"stat"`)
	}
}

func TestFinalizeMatchTieClearsWinnerFlags(t *testing.T) {
	stored := &models.Match{
		ID:     2,
		Status: models.MatchStatusOngoing,
		TeamA:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 1}}, IsWinner: true},
		TeamB:  models.MatchTeam{Players: []models.MatchPlayer{{UserID: 2}}},
	}
	matchRepo := &fakeMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
			return stored, nil
		},
		updateResult: func(ctx context.Context, q repositories.Queryer, match *models.Match) error {
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return []*models.PlayerMatchStat{
				{PlayerID: 1, PointsScored: 8},
				{PlayerID: 2, PointsScored: 8},
			}, nil
		},
	}

	svc := newTestMatchService(matchRepo, statRepo, nil, nil, nil)

	match, err := svc.FinalizeMatch(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, match.TeamA.IsWinner)
	assert.False(t, match.TeamB.IsWinner)
}

func TestFinalizeMatchWithoutStatsKeepsStatus(t *testing.T) {
	stored := &models.Match{ID: 3, Status: models.MatchStatusOngoing}
	updated := false
	matchRepo := &fakeMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
			return stored, nil
		},
		updateResult: func(ctx context.Context, q repositories.Queryer, match *models.Match) error {
			updated = true
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return nil, nil
		},
	}

	svc := newTestMatchService(matchRepo, statRepo, nil, nil, nil)

	_, err := svc.FinalizeMatch(context.Background(), 3)
	require.ErrorIs(t, err, ErrMatchStatsEmpty)
	assert.False(t, updated)
	assert.Equal(t, models.MatchStatusOngoing, stored.Status)
}

func TestFinalizeMatchRejectsUpcoming(t *testing.T) {
	matchRepo := &fakeMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
			return &models.Match{ID: id, Status: models.MatchStatusUpcoming}, nil
		},
	}

	svc := newTestMatchService(matchRepo, nil, nil, nil, nil)

	_, err := svc.FinalizeMatch(context.Background(), 4)
	require.ErrorIs(t, err, ErrMatchInvalidStatusTransition)
}

func TestListMatchesRejectsUnknownStatus(t *testing.T) {
	svc := newTestMatchService(nil, nil, nil, nil, nil)

	bogus := models.MatchStatus("halftime-show")
	_, err := svc.ListMatches(context.Background(), &bogus, 10, 0)
	require.ErrorIs(t, err, ErrMatchInvalidStatus)
}
