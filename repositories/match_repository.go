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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchCenterInvalid = errors.New("match references unknown community center")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.Match, error)
	List(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error)
	UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error
	// UpdateResult записывает статус, обе команды (счёт, флаги победителя,
	// очки игроков) одним сохранением агрегата.
	UpdateResult(ctx context.Context, q Queryer, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

const matchColumns = `id, center_id, start_time, status, team_a, team_b, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	teamA, err := json.Marshal(match.TeamA)
	if err != nil {
		return fmt.Errorf("failed to marshal team_a: %w", err)
	}
	teamB, err := json.Marshal(match.TeamB)
	if err != nil {
		return fmt.Errorf("failed to marshal team_b: %w", err)
	}

	query := `
		INSERT INTO matches (center_id, start_time, status, team_a, team_b)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		match.CenterID,
		match.StartTime,
		match.Status,
		teamA,
		teamB,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "matches_center_id_fkey" {
			return ErrMatchCenterInvalid
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatchRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatchRow(r.queryer(q).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) List(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
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

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, q Queryer, match *models.Match) error {
	teamA, err := json.Marshal(match.TeamA)
	if err != nil {
		return fmt.Errorf("failed to marshal team_a: %w", err)
	}
	teamB, err := json.Marshal(match.TeamB)
	if err != nil {
		return fmt.Errorf("failed to marshal team_b: %w", err)
	}

	result, err := r.queryer(q).ExecContext(ctx,
		`UPDATE matches SET status = $1, team_a = $2, team_b = $3 WHERE id = $4`,
		match.Status, teamA, teamB, match.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) scanMatchRow(row *sql.Row) (*models.Match, error) {
	match, err := r.scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var teamA, teamB []byte

	err := row.Scan(
		&match.ID,
		&match.CenterID,
		&match.StartTime,
		&match.Status,
		&teamA,
		&teamB,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(teamA, &match.TeamA); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team_a for match %d: %w", match.ID, err)
	}
	if err := json.Unmarshal(teamB, &match.TeamB); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team_b for match %d: %w", match.ID, err)
	}
	return match, nil
}
