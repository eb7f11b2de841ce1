package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CreateChargeRequest describes a new billable occurrence. When UnitRate
// is nil the effective rate is resolved from the price list; a manual
// rate bypasses resolution entirely.
type CreateChargeRequest struct {
	AccountID   snowflake.ID     `json:"account_id"`
	SidemarkID  *snowflake.ID    `json:"sidemark_id,omitempty"`
	EventType   string           `json:"event_type"`
	ChargeType  string           `json:"charge_type"`
	ClassCode   *string          `json:"class_code,omitempty"`
	Description string           `json:"description,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitRate    *decimal.Decimal `json:"unit_rate,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

type Service interface {
	// CreateCharge records an event, capturing the resolved rate. A rate
	// resolution failure marks the event instead of rejecting it, so one
	// missing price never blocks sibling charges in a batch.
	CreateCharge(ctx context.Context, req CreateChargeRequest) (*BillingEvent, error)
	// CreateCharges applies CreateCharge per entry; per-event rate errors
	// do not abort the batch.
	CreateCharges(ctx context.Context, reqs []CreateChargeRequest) ([]*BillingEvent, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAccount      = errors.New("invalid_account")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidChargeType   = errors.New("invalid_charge_type")
)
