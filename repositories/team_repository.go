package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courtside/community-league/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamTournamentInvalid = errors.New("team references unknown tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, q Queryer, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	// UpdateScore пишет счёт и флаг победителя; вызывается в одной
	// транзакции с записью результата турнирного матча.
	UpdateScore(ctx context.Context, q Queryer, teamID, score int, winner bool) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

const teamColumns = `id, tournament_id, name, roster, match_score, is_winner, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	roster, err := json.Marshal(team.Roster)
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}

	query := `
		INSERT INTO teams (tournament_id, name, roster)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query, team.TournamentID, team.Name, roster).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "teams_tournament_id_fkey" {
			return ErrTeamTournamentInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, q Queryer, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team, err := r.scanTeam(r.queryer(q).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := r.scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateScore(ctx context.Context, q Queryer, teamID, score int, winner bool) error {
	result, err := r.queryer(q).ExecContext(ctx,
		`UPDATE teams SET match_score = $1, is_winner = $2 WHERE id = $3`,
		score, winner, teamID,
	)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *postgresTeamRepository) scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{}
	var roster []byte

	err := row.Scan(
		&team.ID,
		&team.TournamentID,
		&team.Name,
		&roster,
		&team.MatchScore,
		&team.IsWinner,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &team.Roster); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roster for team %d: %w", team.ID, err)
		}
	}
	return team, nil
}
