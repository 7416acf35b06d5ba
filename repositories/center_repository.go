package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courtside/community-league/models"
)

var ErrCenterNotFound = errors.New("community center not found")

type CenterRepository interface {
	Create(ctx context.Context, center *models.CommunityCenter) error
	GetByID(ctx context.Context, id int) (*models.CommunityCenter, error)
	// GetByIDForUpdate блокирует строку агрегата (SELECT ... FOR UPDATE),
	// чтобы сверка бронирований не теряла конкурентные записи.
	GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.CommunityCenter, error)
	List(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error)
	// SaveSchedule сохраняет всё дерево расписания одной записью.
	SaveSchedule(ctx context.Context, q Queryer, centerID int, schedule []models.CommunityTimeSlot) error
	UpdatePhotoKey(ctx context.Context, id int, key *string) error
}

type postgresCenterRepository struct {
	db *sql.DB
}

func NewPostgresCenterRepository(db *sql.DB) CenterRepository {
	return &postgresCenterRepository{db: db}
}

func (r *postgresCenterRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

const centerColumns = `id, name, address, latitude, longitude, price, schedule, photo_key, created_at`

func (r *postgresCenterRepository) Create(ctx context.Context, center *models.CommunityCenter) error {
	schedule, err := json.Marshal(center.Schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	query := `
		INSERT INTO community_centers (name, address, latitude, longitude, price, schedule)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		center.Name,
		center.Address,
		center.Latitude,
		center.Longitude,
		center.Price,
		schedule,
	).Scan(&center.ID, &center.CreatedAt)
}

func (r *postgresCenterRepository) GetByID(ctx context.Context, id int) (*models.CommunityCenter, error) {
	query := `SELECT ` + centerColumns + ` FROM community_centers WHERE id = $1`
	return r.scanCenter(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCenterRepository) GetByIDForUpdate(ctx context.Context, q Queryer, id int) (*models.CommunityCenter, error) {
	query := `SELECT ` + centerColumns + ` FROM community_centers WHERE id = $1 FOR UPDATE`
	return r.scanCenter(r.queryer(q).QueryRowContext(ctx, query, id))
}

func (r *postgresCenterRepository) List(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error) {
	query := `SELECT ` + centerColumns + ` FROM community_centers ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	centers := make([]*models.CommunityCenter, 0)
	for rows.Next() {
		center, scanErr := r.scanCenterRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		centers = append(centers, center)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return centers, nil
}

func (r *postgresCenterRepository) SaveSchedule(ctx context.Context, q Queryer, centerID int, schedule []models.CommunityTimeSlot) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	result, err := r.queryer(q).ExecContext(ctx,
		`UPDATE community_centers SET schedule = $1 WHERE id = $2`,
		payload, centerID,
	)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrCenterNotFound
	}
	return nil
}

func (r *postgresCenterRepository) UpdatePhotoKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE community_centers SET photo_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrCenterNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *postgresCenterRepository) scanCenter(row *sql.Row) (*models.CommunityCenter, error) {
	center, err := r.scanCenterRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}
	return center, nil
}

func (r *postgresCenterRepository) scanCenterRow(row rowScanner) (*models.CommunityCenter, error) {
	center := &models.CommunityCenter{}
	var schedule []byte

	err := row.Scan(
		&center.ID,
		&center.Name,
		&center.Address,
		&center.Latitude,
		&center.Longitude,
		&center.Price,
		&schedule,
		&center.PhotoKey,
		&center.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &center.Schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schedule for center %d: %w", center.ID, err)
		}
	}
	return center, nil
}
