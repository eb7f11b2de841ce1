// Package domain contains the pricing models for billable services.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AdjustmentType selects how an account adjustment modifies the tenant base rate.
type AdjustmentType string

const (
	AdjustmentFixed      AdjustmentType = "fixed"
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentOverride   AdjustmentType = "override"
)

// Valid reports whether the adjustment type is one of the known modes.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentFixed, AdjustmentPercentage, AdjustmentOverride:
		return true
	}
	return false
}

// ServiceRate is the tenant-wide base price for a (service, class) key.
// Rows are owned by price-list management; the billing core only reads them.
type ServiceRate struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	OrgID       snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_service_rate_key,priority:1"`
	ServiceCode string          `gorm:"type:text;not null;uniqueIndex:ux_service_rate_key,priority:2"`
	ClassCode   *string         `gorm:"type:text;uniqueIndex:ux_service_rate_key,priority:3"`
	Rate        decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceRate) TableName() string { return "service_rates" }

// AccountAdjustment overrides the tenant base rate for one account.
// At most one adjustment may exist per (account, service, class) key.
type AccountAdjustment struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	OrgID           snowflake.ID    `gorm:"not null;index"`
	AccountID       snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_account_adjustment_key,priority:1"`
	ServiceCode     string          `gorm:"type:text;not null;uniqueIndex:ux_account_adjustment_key,priority:2"`
	ClassCode       *string         `gorm:"type:text;uniqueIndex:ux_account_adjustment_key,priority:3"`
	AdjustmentType  AdjustmentType  `gorm:"type:text;not null"`
	AdjustmentValue decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Notes           string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AccountAdjustment) TableName() string { return "account_adjustments" }
