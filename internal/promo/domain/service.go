package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount is the selected deduction for one event. It is informational
// at resolution time; the event's captured rate basis is never mutated.
type Discount struct {
	PromoCodeID   snowflake.ID    `json:"promo_code_id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Amount        decimal.Decimal `json:"amount"`
}

type Service interface {
	// BestDiscount returns the single best applicable discount for an
	// event, or nil when no assigned code is eligible.
	BestDiscount(ctx context.Context, accountID snowflake.ID, serviceCode string, total decimal.Decimal) (*Discount, error)
	// RecordUse increments a code's usage counter, failing once the
	// usage limit is exhausted.
	RecordUse(ctx context.Context, promoCodeID snowflake.ID) error
	// WithTrx returns a Service running on the given transaction handle,
	// so usage accounting commits or rolls back with the caller's work.
	WithTrx(tx *gorm.DB) Service
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrUsageLimitReached   = errors.New("usage_limit_reached")
)

// SelectBest picks the candidate yielding the greatest absolute discount
// on the pre-discount total. A flat code can beat a higher percentage on
// a small-ticket event, so amounts are compared, not declared values.
// Ties go to the earliest-created code for deterministic output.
func SelectBest(codes []PromoCode, serviceCode string, total decimal.Decimal, now time.Time) *Discount {
	var best *PromoCode
	var bestAmount decimal.Decimal

	for i := range codes {
		code := &codes[i]
		if !code.Eligible(now) || !code.AppliesTo(serviceCode) {
			continue
		}
		amount := code.DiscountAmount(total)
		if amount.Sign() <= 0 {
			continue
		}
		if best == nil ||
			amount.GreaterThan(bestAmount) ||
			(amount.Equal(bestAmount) && code.CreatedAt.Before(best.CreatedAt)) {
			best = code
			bestAmount = amount
		}
	}

	if best == nil {
		return nil
	}
	return &Discount{
		PromoCodeID:   best.ID,
		Code:          best.Code,
		DiscountType:  best.DiscountType,
		DiscountValue: best.DiscountValue,
		Amount:        bestAmount,
	}
}
