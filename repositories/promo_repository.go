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
	ErrPromoNotFound     = errors.New("promo code not found")
	ErrPromoCodeConflict = errors.New("promo code already exists")
	// ErrPromoRedeemDenied — условный инкремент не прошёл (исчерпан лимит
	// или истёк срок); классификацию причины делает сервис.
	ErrPromoRedeemDenied = errors.New("promo code redeem denied")
)

type PromoRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	// Redeem атомарно инкрементирует usage_count одним условным UPDATE,
	// поэтому лимит применений не превышается при конкурентных вызовах.
	Redeem(ctx context.Context, code string, now time.Time) (*models.PromoCode, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresPromoRepository struct {
	db *sql.DB
}

func NewPostgresPromoRepository(db *sql.DB) PromoRepository {
	return &postgresPromoRepository{db: db}
}

const promoColumns = `id, code, discount_percent, expires_at, usage_count, max_usage, active, created_at`

func (r *postgresPromoRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, discount_percent, expires_at, max_usage, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, usage_count, created_at`

	err := r.db.QueryRowContext(ctx, query,
		promo.Code,
		promo.DiscountPercent,
		promo.ExpiresAt,
		promo.MaxUsage,
		promo.Active,
	).Scan(&promo.ID, &promo.UsageCount, &promo.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "promo_codes_code_key" {
			return ErrPromoCodeConflict
		}
		return err
	}
	return nil
}

func (r *postgresPromoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`
	return r.scanPromo(r.db.QueryRowContext(ctx, query, code), ErrPromoNotFound)
}

func (r *postgresPromoRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	query := `
		UPDATE promo_codes
		SET usage_count = usage_count + 1
		WHERE code = $1 AND active AND usage_count < max_usage AND expires_at > $2
		RETURNING ` + promoColumns

	return r.scanPromo(r.db.QueryRowContext(ctx, query, code, now), ErrPromoRedeemDenied)
}

func (r *postgresPromoRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE promo_codes SET active = false WHERE active AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return checkRowsAffected(result)
}

func (r *postgresPromoRepository) scanPromo(row *sql.Row, noRowsErr error) (*models.PromoCode, error) {
	promo := &models.PromoCode{}
	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountPercent,
		&promo.ExpiresAt,
		&promo.UsageCount,
		&promo.MaxUsage,
		&promo.Active,
		&promo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, noRowsErr
		}
		return nil, err
	}
	return promo, nil
}
