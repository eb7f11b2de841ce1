// Package domain contains the promo catalog models and the
// best-discount selection rule.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type ServiceScope string

const (
	ScopeAll      ServiceScope = "all"
	ScopeSelected ServiceScope = "selected"
)

type ExpirationType string

const (
	ExpirationNone ExpirationType = "none"
	ExpirationDate ExpirationType = "date"
)

type UsageLimitType string

const (
	UsageUnlimited UsageLimitType = "unlimited"
	UsageLimited   UsageLimitType = "limited"
)

// PromoCode is a tenant-level discount definition assigned to accounts.
type PromoCode struct {
	ID               snowflake.ID                 `gorm:"primaryKey"`
	OrgID            snowflake.ID                 `gorm:"not null;index"`
	Code             string                       `gorm:"type:text;not null"`
	DiscountType     DiscountType                 `gorm:"type:text;not null"`
	DiscountValue    decimal.Decimal              `gorm:"type:numeric(14,4);not null"`
	ServiceScope     ServiceScope                 `gorm:"type:text;not null;default:'all'"`
	SelectedServices datatypes.JSONSlice[string]  `gorm:"type:jsonb"`
	ExpirationType   ExpirationType               `gorm:"type:text;not null;default:'none'"`
	ExpirationDate   *time.Time                   `gorm:""`
	UsageLimitType   UsageLimitType               `gorm:"type:text;not null;default:'unlimited'"`
	UsageLimit       *int64                       `gorm:""`
	UsageCount       int64                        `gorm:"not null;default:0"`
	IsActive         bool                         `gorm:"not null;default:true"`
	CreatedAt        time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PromoCode) TableName() string { return "promo_codes" }

// AccountPromoAssignment links a promo code to an account. Removing an
// assignment has no retroactive effect on already-priced events.
type AccountPromoAssignment struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OrgID       snowflake.ID `gorm:"not null;index"`
	AccountID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_account_promo,priority:1"`
	PromoCodeID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_account_promo,priority:2"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountPromoAssignment) TableName() string { return "account_promo_assignments" }

// Eligible reports whether the code may discount an event at the given
// instant: active, not expired, and under its usage limit.
func (p PromoCode) Eligible(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ExpirationType == ExpirationDate {
		if p.ExpirationDate == nil || !now.Before(*p.ExpirationDate) {
			return false
		}
	}
	if p.UsageLimitType == UsageLimited {
		if p.UsageLimit == nil || p.UsageCount >= *p.UsageLimit {
			return false
		}
	}
	return true
}

// AppliesTo reports whether the code's service scope covers serviceCode.
func (p PromoCode) AppliesTo(serviceCode string) bool {
	if p.ServiceScope == ScopeAll {
		return true
	}
	for _, selected := range p.SelectedServices {
		if selected == serviceCode {
			return true
		}
	}
	return false
}

// DiscountAmount computes the absolute deduction the code yields on a
// pre-discount total. Flat discounts are capped at the total so a line
// can never go negative.
func (p PromoCode) DiscountAmount(total decimal.Decimal) decimal.Decimal {
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		amount = total.Mul(p.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		amount = p.DiscountValue
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(total) {
		return total
	}
	return amount
}
