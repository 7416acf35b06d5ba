package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentCenterInvalid = errors.New("tournament references unknown community center")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	// AutoAdvanceStatuses переводит турниры по датам:
	// registration → active после start_date, active → completed после end_date.
	AutoAdvanceStatuses(ctx context.Context, now time.Time) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, description, center_id, start_date, end_date, entry_fee, capacity, status, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, center_id, start_date, end_date, entry_fee, capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.CenterID,
		tournament.StartDate,
		tournament.EndDate,
		tournament.EntryFee,
		tournament.Capacity,
		tournament.Status,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "tournaments_center_id_fkey" {
			return ErrTournamentCenterInvalid
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament, err := r.scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY start_date DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		tournament, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, tournament)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

func (r *postgresTournamentRepository) AutoAdvanceStatuses(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	started, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE status = $2 AND start_date <= $3`,
		models.TournamentStatusActive, models.TournamentStatusRegistration, now,
	)
	if err != nil {
		return 0, err
	}
	if n, err := checkRowsAffected(started); err == nil {
		total += n
	}

	completed, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE status = $2 AND end_date < $3`,
		models.TournamentStatusCompleted, models.TournamentStatusActive, now,
	)
	if err != nil {
		return total, err
	}
	if n, err := checkRowsAffected(completed); err == nil {
		total += n
	}

	return total, nil
}

func (r *postgresTournamentRepository) scanTournament(row rowScanner) (*models.Tournament, error) {
	tournament := &models.Tournament{}
	err := row.Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Description,
		&tournament.CenterID,
		&tournament.StartDate,
		&tournament.EndDate,
		&tournament.EntryFee,
		&tournament.Capacity,
		&tournament.Status,
		&tournament.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tournament, nil
}
