package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
)

type PromoService interface {
	CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error)
	GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	// RedeemPromo потребляет одно применение кода. Каждый успешный вызов
	// увеличивает счётчик: операция сознательно не идемпотентна, слепой
	// повтор после сетевого сбоя потратит ещё одно применение.
	RedeemPromo(ctx context.Context, code string) (*RedeemResult, error)
	// DeactivateExpired гасит истёкшие коды; вызывается планировщиком.
	DeactivateExpired(ctx context.Context) (int64, error)
}

type CreatePromoInput struct {
	Code            string    `json:"code" validate:"required"`
	DiscountPercent int       `json:"discount_percent" validate:"required"`
	ExpiresAt       time.Time `json:"expires_at" validate:"required"`
	MaxUsage        int       `json:"max_usage" validate:"required"`
}

type RedeemResult struct {
	DiscountPercent int `json:"discount_percent"`
	UsageCount      int `json:"usage_count"`
	MaxUsage        int `json:"max_usage"`
}

type promoService struct {
	promoRepo repositories.PromoRepository
	now       func() time.Time
}

func NewPromoService(promoRepo repositories.PromoRepository) PromoService {
	return &promoService{
		promoRepo: promoRepo,
		now:       time.Now,
	}
}

func (s *promoService) CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error) {
	if input.DiscountPercent < 1 || input.DiscountPercent > 100 {
		return nil, ErrPromoInvalidDiscount
	}
	if input.MaxUsage <= 0 {
		return nil, ErrPromoInvalidUsageCap
	}
	if !input.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expiration must be in the future", ErrValidationFailed)
	}

	promo := &models.PromoCode{
		Code:            input.Code,
		DiscountPercent: input.DiscountPercent,
		ExpiresAt:       input.ExpiresAt,
		MaxUsage:        input.MaxUsage,
		Active:          true,
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		if errors.Is(err, repositories.ErrPromoCodeConflict) {
			return nil, ErrPromoCodeConflict
		}
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}
	return promo, nil
}

func (s *promoService) GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrPromoNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

func (s *promoService) RedeemPromo(ctx context.Context, code string) (*RedeemResult, error) {
	now := s.now()

	promo, err := s.promoRepo.Redeem(ctx, code, now)
	if err != nil {
		if errors.Is(err, repositories.ErrPromoRedeemDenied) {
			// Инкремент не прошёл; перечитываем код, чтобы назвать причину.
			return nil, s.classifyRedeemDenial(ctx, code, now)
		}
		return nil, fmt.Errorf("failed to redeem promo code: %w", err)
	}

	return &RedeemResult{
		DiscountPercent: promo.DiscountPercent,
		UsageCount:      promo.UsageCount,
		MaxUsage:        promo.MaxUsage,
	}, nil
}

func (s *promoService) classifyRedeemDenial(ctx context.Context, code string, now time.Time) error {
	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrPromoNotFound) {
			return ErrPromoNotFound
		}
		return fmt.Errorf("failed to classify promo denial: %w", err)
	}
	if !promo.Active || !promo.ExpiresAt.After(now) {
		return ErrPromoExpired
	}
	if promo.UsageCount >= promo.MaxUsage {
		return ErrPromoUsageLimit
	}
	// Код стал валиден между инкрементом и перечиткой; пусть клиент
	// повторит запрос сам.
	return ErrPromoExpired
}

func (s *promoService) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.promoRepo.DeactivateExpired(ctx, s.now())
}
