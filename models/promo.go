package models

import "time"

// PromoCode — скидочный код с ограничением по сроку и числу применений.
// Инвариант: UsageCount <= MaxUsage всегда; счётчик инкрементируется
// атомарно вместе с принятием кода.
type PromoCode struct {
	ID              int       `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	ExpiresAt       time.Time `json:"expires_at"`
	UsageCount      int       `json:"usage_count"`
	MaxUsage        int       `json:"max_usage"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}
