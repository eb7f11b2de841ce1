// Package domain contains the billable event model. Events are immutable
// once created; only their status moves, and only through invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusUnbilled EventStatus = "unbilled"
	EventStatusFlagged  EventStatus = "flagged"
	EventStatusBilled   EventStatus = "billed"
	EventStatusVoid     EventStatus = "void"
)

// BillingEvent captures one billable occurrence with the rate that was
// effective at creation time. The captured unit_rate is never recomputed,
// so the original pricing basis stays reconstructable.
type BillingEvent struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	OrgID            snowflake.ID    `gorm:"not null;index"`
	AccountID        snowflake.ID    `gorm:"not null;index"`
	SidemarkID       *snowflake.ID   `gorm:"index"`
	EventType        string          `gorm:"type:text;not null"`
	ChargeType       string          `gorm:"type:text;not null"`
	ClassCode        *string         `gorm:"type:text"`
	Description      string          `gorm:"type:text"`
	Quantity         decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	UnitRate         decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Status           EventStatus     `gorm:"type:text;not null;default:'unbilled';index"`
	HasRateError     bool            `gorm:"not null;default:false"`
	RateErrorMessage *string         `gorm:"type:text"`
	InvoiceID        *snowflake.ID   `gorm:"index"`
	OccurredAt       time.Time       `gorm:"not null;index"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }
