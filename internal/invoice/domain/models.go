// Package domain contains persistence models for invoice drafts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents the invoice lifecycle states. Void is
// terminal: a voided invoice's events stay billed, as a conscious,
// audited write-off rather than a rollback.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

// GroupingStrategy selects how a selection of unbilled events is split
// into drafts.
type GroupingStrategy string

const (
	GroupSingle            GroupingStrategy = "single"
	GroupByAccount         GroupingStrategy = "by_account"
	GroupBySidemark        GroupingStrategy = "by_sidemark"
	GroupByAccountSidemark GroupingStrategy = "by_account_sidemark"
)

// LineSort orders lines within a draft. Purely presentational; totals
// are unaffected.
type LineSort string

const (
	SortByDate       LineSort = "date"
	SortByService    LineSort = "service"
	SortByItem       LineSort = "item"
	SortByAmountDesc LineSort = "amount_desc"
)

type LineKind string

const (
	LineKindCharge   LineKind = "charge"
	LineKindDiscount LineKind = "discount"
)

// InvoiceDraft is one grouped financial document assembled from unbilled
// billing events.
type InvoiceDraft struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	OrgID         snowflake.ID      `gorm:"not null;index"`
	AccountID     snowflake.ID      `gorm:"not null;index"`
	SidemarkID    *snowflake.ID     `gorm:"index"`
	BatchID       string            `gorm:"type:text;index"`
	InvoiceType   string            `gorm:"type:text"`
	PeriodStart   time.Time         `gorm:"not null"`
	PeriodEnd     time.Time         `gorm:"not null"`
	Status        InvoiceStatus     `gorm:"type:text;not null;default:'draft'"`
	Subtotal      decimal.Decimal   `gorm:"type:numeric(14,4);not null"`
	DiscountTotal decimal.Decimal   `gorm:"type:numeric(14,4);not null"`
	Total         decimal.Decimal   `gorm:"type:numeric(14,4);not null"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
	SentAt        *time.Time        `gorm:""`
	PaidAt        *time.Time        `gorm:""`
	VoidedAt      *time.Time        `gorm:""`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Lines []InvoiceLine `gorm:"-"`
}

// TableName sets the database table name.
func (InvoiceDraft) TableName() string { return "invoice_drafts" }

// InvoiceLine is one charge or discount on a draft.
type InvoiceLine struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	OrgID          snowflake.ID    `gorm:"not null;index"`
	InvoiceID      snowflake.ID    `gorm:"not null;index"`
	BillingEventID *snowflake.ID   `gorm:"index"`
	PromoCodeID    *snowflake.ID   `gorm:"index"`
	Kind           LineKind        `gorm:"type:text;not null;default:'charge'"`
	ChargeType     string          `gorm:"type:text"`
	Description    string          `gorm:"type:text"`
	Quantity       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	UnitRate       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	HasRateError   bool            `gorm:"not null;default:false"`
	EventDate      time.Time       `gorm:""`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
