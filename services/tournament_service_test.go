package services

import (
	"context"
	"testing"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tournamentFixture() *models.Tournament {
	return &models.Tournament{
		ID:        10,
		Name:      "Летний кубок",
		CenterID:  1,
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(72 * time.Hour),
		EntryFee:  100,
		Capacity:  16,
		Status:    models.TournamentStatusRegistration,
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	svc := NewTournamentService(nil, nil, nil, nil, nil, nil, nil, nil)
	now := time.Now()

	cases := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:    "end before start",
			input:   CreateTournamentInput{Name: "t", CenterID: 1, StartDate: now.Add(time.Hour), EndDate: now, Capacity: 8},
			wantErr: ErrTournamentInvalidDateRange,
		},
		{
			name:    "zero capacity",
			input:   CreateTournamentInput{Name: "t", CenterID: 1, StartDate: now, EndDate: now.Add(time.Hour), Capacity: 0},
			wantErr: ErrTournamentInvalidCapacity,
		},
		{
			name:    "negative fee",
			input:   CreateTournamentInput{Name: "t", CenterID: 1, StartDate: now, EndDate: now.Add(time.Hour), Capacity: 8, EntryFee: -1},
			wantErr: ErrTournamentInvalidFee,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTournament(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestEnterTournamentInsufficientCoinsLeavesBalanceUntouched(t *testing.T) {
	debits := 0
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Coins: 50}, nil
		},
		debitCoins: func(ctx context.Context, q repositories.Queryer, id, amount int) error {
			debits++
			return nil
		},
	}
	bookingRepo := &fakeTournamentBookingRepo{
		findByUserAndTournament: func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
			return nil, repositories.ErrTournamentBookingNotFound
		},
		countByTournament: func(ctx context.Context, tournamentID int) (int, error) {
			return 0, nil
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
			return tournamentFixture(), nil
		},
	}
	runner := &fakeTxRunner{}

	svc := NewTournamentService(tournamentRepo, bookingRepo, nil, nil, nil, userRepo, runner, nil)

	_, err := svc.EnterTournament(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrInsufficientCoins)
	assert.Zero(t, debits)
	assert.Zero(t, runner.calls)
}

func TestEnterTournamentDuplicateBooking(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Coins: 500}, nil
		},
	}
	bookingRepo := &fakeTournamentBookingRepo{
		findByUserAndTournament: func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
			return &models.TournamentBooking{ID: "existing"}, nil
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
			return tournamentFixture(), nil
		},
	}

	svc := NewTournamentService(tournamentRepo, bookingRepo, nil, nil, nil, userRepo, &fakeTxRunner{}, nil)

	_, err := svc.EnterTournament(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrTournamentEntryConflict)
}

func TestEnterTournamentFull(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Coins: 500}, nil
		},
	}
	bookingRepo := &fakeTournamentBookingRepo{
		findByUserAndTournament: func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
			return nil, repositories.ErrTournamentBookingNotFound
		},
		countByTournament: func(ctx context.Context, tournamentID int) (int, error) {
			return 16, nil
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
			return tournamentFixture(), nil
		},
	}

	svc := NewTournamentService(tournamentRepo, bookingRepo, nil, nil, nil, userRepo, &fakeTxRunner{}, nil)

	_, err := svc.EnterTournament(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrTournamentFull)
}

func TestEnterTournamentDebitsAndBooksInOneTransaction(t *testing.T) {
	var debited int
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Coins: 500}, nil
		},
		debitCoins: func(ctx context.Context, q repositories.Queryer, id, amount int) error {
			debited += amount
			return nil
		},
	}
	var created *models.TournamentBooking
	bookingRepo := &fakeTournamentBookingRepo{
		findByUserAndTournament: func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
			return nil, repositories.ErrTournamentBookingNotFound
		},
		countByTournament: func(ctx context.Context, tournamentID int) (int, error) {
			return 3, nil
		},
		create: func(ctx context.Context, q repositories.Queryer, booking *models.TournamentBooking) error {
			created = booking
			return nil
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
			return tournamentFixture(), nil
		},
	}
	runner := &fakeTxRunner{}

	svc := NewTournamentService(tournamentRepo, bookingRepo, nil, nil, nil, userRepo, runner, nil)

	booking, err := svc.EnterTournament(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, 100, debited)
	assert.Equal(t, 1, runner.calls)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, 1, booking.UserID)
	assert.Equal(t, 10, booking.TournamentID)
}

func TestEnterTournamentConcurrentConflictInsideTransaction(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Coins: 500}, nil
		},
		debitCoins: func(ctx context.Context, q repositories.Queryer, id, amount int) error {
			return nil
		},
	}
	bookingRepo := &fakeTournamentBookingRepo{
		findByUserAndTournament: func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
			return nil, repositories.ErrTournamentBookingNotFound
		},
		countByTournament: func(ctx context.Context, tournamentID int) (int, error) {
			return 0, nil
		},
		create: func(ctx context.Context, q repositories.Queryer, booking *models.TournamentBooking) error {
			// Параллельный вход успел раньше: уникальный индекс сработал.
			return repositories.ErrTournamentBookingConflict
		},
	}
	tournamentRepo := &fakeTournamentRepo{
		getByID: func(ctx context.Context, id int) (*models.Tournament, error) {
			return tournamentFixture(), nil
		},
	}

	svc := NewTournamentService(tournamentRepo, bookingRepo, nil, nil, nil, userRepo, &fakeTxRunner{}, nil)

	_, err := svc.EnterTournament(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrTournamentEntryConflict)
}

func TestCreateTournamentMatchRejectsSameTeam(t *testing.T) {
	svc := NewTournamentService(nil, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.CreateTournamentMatch(context.Background(), CreateTournamentMatchInput{
		TournamentID: 10,
		TeamAID:      1,
		TeamBID:      1,
		StartTime:    time.Now(),
	})
	require.ErrorIs(t, err, ErrMatchSameTeam)
}

func TestCreateTournamentMatchRejectsForeignTeam(t *testing.T) {
	teamRepo := &fakeTeamRepo{
		getByID: func(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error) {
			if id == 1 {
				return &models.Team{ID: 1, TournamentID: 10}, nil
			}
			return &models.Team{ID: 2, TournamentID: 99}, nil
		},
	}

	svc := NewTournamentService(nil, nil, teamRepo, nil, nil, nil, nil, nil)

	_, err := svc.CreateTournamentMatch(context.Background(), CreateTournamentMatchInput{
		TournamentID: 10,
		TeamAID:      1,
		TeamBID:      2,
		StartTime:    time.Now(),
	})
	require.ErrorIs(t, err, ErrTeamsNotInSameTournament)
}

func TestFinalizeTournamentMatchWritesMatchAndTeams(t *testing.T) {
	teamA := &models.Team{ID: 1, TournamentID: 10, Roster: []models.MatchPlayer{{UserID: 1}, {UserID: 2}}}
	teamB := &models.Team{ID: 2, TournamentID: 10, Roster: []models.MatchPlayer{{UserID: 3}}}

	tmRepo := &fakeTournamentMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.TournamentMatch, error) {
			return &models.TournamentMatch{
				ID:           5,
				TournamentID: 10,
				TeamAID:      1,
				TeamBID:      2,
				Status:       models.MatchStatusOngoing,
			}, nil
		},
	}
	var savedMatch *models.TournamentMatch
	tmRepo.updateResult = func(ctx context.Context, q repositories.Queryer, match *models.TournamentMatch) error {
		savedMatch = match
		return nil
	}

	teamScores := map[int]int{}
	teamWinners := map[int]bool{}
	teamRepo := &fakeTeamRepo{
		getByID: func(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error) {
			if id == 1 {
				return teamA, nil
			}
			return teamB, nil
		},
		updateScore: func(ctx context.Context, q repositories.Queryer, teamID, score int, winner bool) error {
			teamScores[teamID] = score
			teamWinners[teamID] = winner
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByTournamentMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return []*models.PlayerMatchStat{
				{PlayerID: 1, PointsScored: 7},
				{PlayerID: 2, PointsScored: 6},
				{PlayerID: 3, PointsScored: 20},
			}, nil
		},
	}
	runner := &fakeTxRunner{}
	hub := &fakeBroadcaster{}

	svc := NewTournamentService(nil, nil, teamRepo, tmRepo, statRepo, nil, runner, hub)

	match, err := svc.FinalizeTournamentMatch(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, savedMatch)

	assert.Equal(t, models.MatchStatusFinished, match.Status)
	assert.Equal(t, 13, match.TeamAScore)
	assert.Equal(t, 20, match.TeamBScore)
	require.NotNil(t, match.WinnerTeamID)
	assert.Equal(t, 2, *match.WinnerTeamID)

	// Обе команды обновлены в той же транзакции.
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 13, teamScores[1])
	assert.Equal(t, 20, teamScores[2])
	assert.False(t, teamWinners[1])
	assert.True(t, teamWinners[2])

	// Бокс-скоры подклеены к составам в ответе.
	require.NotNil(t, match.TeamA)
	require.NotNil(t, match.TeamB)
	require.NotNil(t, match.TeamA.Roster[0].Stat)
	assert.Equal(t, 7, match.TeamA.Roster[0].Score)
	assert.Equal(t, 6, match.TeamA.Roster[1].Score)
	require.NotNil(t, match.TeamB.Roster[0].Stat)
	assert.Equal(t, 20, match.TeamB.Roster[0].Stat.PointsScored)

	require.Equal(t, []string{"tournament_10"}, hub.rooms)
}

func TestFinalizeTournamentMatchTieHasNoWinnerTeam(t *testing.T) {
	teamA := &models.Team{ID: 1, TournamentID: 10, Roster: []models.MatchPlayer{{UserID: 1}}}
	teamB := &models.Team{ID: 2, TournamentID: 10, Roster: []models.MatchPlayer{{UserID: 2}}}

	tmRepo := &fakeTournamentMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.TournamentMatch, error) {
			return &models.TournamentMatch{ID: 6, TournamentID: 10, TeamAID: 1, TeamBID: 2, Status: models.MatchStatusOngoing}, nil
		},
		updateResult: func(ctx context.Context, q repositories.Queryer, match *models.TournamentMatch) error {
			return nil
		},
	}
	teamRepo := &fakeTeamRepo{
		getByID: func(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error) {
			if id == 1 {
				return teamA, nil
			}
			return teamB, nil
		},
		updateScore: func(ctx context.Context, q repositories.Queryer, teamID, score int, winner bool) error {
			return nil
		},
	}
	statRepo := &fakeStatRepo{
		listByTournamentMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return []*models.PlayerMatchStat{
				{PlayerID: 1, PointsScored: 15},
				{PlayerID: 2, PointsScored: 15},
			}, nil
		},
	}

	svc := NewTournamentService(nil, nil, teamRepo, tmRepo, statRepo, nil, &fakeTxRunner{}, nil)

	match, err := svc.FinalizeTournamentMatch(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, match.WinnerTeamID)
	assert.False(t, teamA.IsWinner)
	assert.False(t, teamB.IsWinner)
}

func TestFinalizeTournamentMatchWithoutStats(t *testing.T) {
	tmRepo := &fakeTournamentMatchRepo{
		getByIDForUpdate: func(ctx context.Context, q repositories.Queryer, id int) (*models.TournamentMatch, error) {
			return &models.TournamentMatch{ID: 7, TournamentID: 10, TeamAID: 1, TeamBID: 2, Status: models.MatchStatusOngoing}, nil
		},
	}
	teamRepo := &fakeTeamRepo{
		getByID: func(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error) {
			return &models.Team{ID: id, TournamentID: 10}, nil
		},
	}
	statRepo := &fakeStatRepo{
		listByTournamentMatch: func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
			return nil, nil
		},
	}

	svc := NewTournamentService(nil, nil, teamRepo, tmRepo, statRepo, nil, &fakeTxRunner{}, nil)

	_, err := svc.FinalizeTournamentMatch(context.Background(), 7)
	require.ErrorIs(t, err, ErrMatchStatsEmpty)
}
