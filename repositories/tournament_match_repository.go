package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtside/community-league/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentMatchNotFound    = errors.New("tournament match not found")
	ErrTournamentMatchTeamInvalid = errors.New("tournament match references unknown team")
)

type TournamentMatchRepository interface {
	Create(ctx context.Context, match *models.TournamentMatch) error
	GetByID(ctx context.Context, id int) (*models.TournamentMatch, error)
	GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.TournamentMatch, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentMatch, error)
	UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error
	// UpdateResult пишет встроенное представление результата на матче;
	// счёт самих команд обновляется тем же Queryer в той же транзакции.
	UpdateResult(ctx context.Context, q Queryer, match *models.TournamentMatch) error
}

type postgresTournamentMatchRepository struct {
	db *sql.DB
}

func NewPostgresTournamentMatchRepository(db *sql.DB) TournamentMatchRepository {
	return &postgresTournamentMatchRepository{db: db}
}

func (r *postgresTournamentMatchRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

const tournamentMatchColumns = `id, tournament_id, team_a_id, team_b_id, start_time, status, team_a_score, team_b_score, winner_team_id, created_at`

func (r *postgresTournamentMatchRepository) Create(ctx context.Context, match *models.TournamentMatch) error {
	query := `
		INSERT INTO tournament_matches (tournament_id, team_a_id, team_b_id, start_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TournamentID,
		match.TeamAID,
		match.TeamBID,
		match.StartTime,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrTournamentMatchTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTournamentMatchRepository) GetByID(ctx context.Context, id int) (*models.TournamentMatch, error) {
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE id = $1`
	return r.scanRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentMatchRepository) GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.TournamentMatch, error) {
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE id = $1 FOR UPDATE`
	return r.scanRow(r.queryer(q).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentMatch, error) {
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE tournament_id = $1 ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.TournamentMatch, 0)
	for rows.Next() {
		match, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresTournamentMatchRepository) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournament_matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTournamentMatchNotFound
	}
	return nil
}

func (r *postgresTournamentMatchRepository) UpdateResult(ctx context.Context, q Queryer, match *models.TournamentMatch) error {
	result, err := r.queryer(q).ExecContext(ctx,
		`UPDATE tournament_matches SET status = $1, team_a_score = $2, team_b_score = $3, winner_team_id = $4 WHERE id = $5`,
		match.Status, match.TeamAScore, match.TeamBScore, match.WinnerTeamID, match.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTournamentMatchNotFound
	}
	return nil
}

func (r *postgresTournamentMatchRepository) scanRow(row *sql.Row) (*models.TournamentMatch, error) {
	match, err := r.scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresTournamentMatchRepository) scanMatch(row rowScanner) (*models.TournamentMatch, error) {
	match := &models.TournamentMatch{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.TeamAID,
		&match.TeamBID,
		&match.StartTime,
		&match.Status,
		&match.TeamAScore,
		&match.TeamBScore,
		&match.WinnerTeamID,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}
