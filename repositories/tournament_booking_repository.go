package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtside/community-league/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentBookingNotFound = errors.New("tournament booking not found")
	ErrTournamentBookingConflict = errors.New("player is already booked for this tournament")
)

type TournamentBookingRepository interface {
	// Create вызывается в одной транзакции со списанием монет.
	Create(ctx context.Context, q Queryer, booking *models.TournamentBooking) error
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentBooking, error)
}

type postgresTournamentBookingRepository struct {
	db *sql.DB
}

func NewPostgresTournamentBookingRepository(db *sql.DB) TournamentBookingRepository {
	return &postgresTournamentBookingRepository{db: db}
}

func (r *postgresTournamentBookingRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

func (r *postgresTournamentBookingRepository) Create(ctx context.Context, q Queryer, booking *models.TournamentBooking) error {
	query := `
		INSERT INTO tournament_bookings (id, user_id, tournament_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.queryer(q).QueryRowContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.TournamentID,
	).Scan(&booking.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "tournament_bookings_user_tournament_key" {
			return ErrTournamentBookingConflict
		}
		return err
	}
	return nil
}

func (r *postgresTournamentBookingRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
	query := `
		SELECT id, user_id, tournament_id, created_at
		FROM tournament_bookings
		WHERE user_id = $1 AND tournament_id = $2`

	booking := &models.TournamentBooking{}
	err := r.db.QueryRowContext(ctx, query, userID, tournamentID).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.TournamentID,
		&booking.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *postgresTournamentBookingRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_bookings WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTournamentBookingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tournament_id, created_at FROM tournament_bookings WHERE tournament_id = $1 ORDER BY created_at`,
		tournamentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*models.TournamentBooking, 0)
	for rows.Next() {
		booking := &models.TournamentBooking{}
		scanErr := rows.Scan(&booking.ID, &booking.UserID, &booking.TournamentID, &booking.CreatedAt)
		if scanErr != nil {
			return nil, scanErr
		}
		bookings = append(bookings, booking)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
