package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RateSource identifies which precedence tier produced an effective rate.
type RateSource string

const (
	RateSourceAccount RateSource = "account"
	RateSourceTenant  RateSource = "tenant"
)

// ResolvedRate is the effective per-unit price for a billable event.
type ResolvedRate struct {
	Rate   decimal.Decimal `json:"rate"`
	Source RateSource      `json:"source"`
}

// AdjustmentEntry is one requested adjustment in a batch create.
type AdjustmentEntry struct {
	ServiceCode string          `json:"service_code"`
	ClassCode   *string         `json:"class_code,omitempty"`
	Type        AdjustmentType  `json:"adjustment_type"`
	Value       decimal.Decimal `json:"adjustment_value"`
	Notes       string          `json:"notes,omitempty"`
}

// BatchCreateResult reports the partial outcome of a batch create.
// Entries whose (service, class) key already carries an adjustment are
// skipped, never overwritten.
type BatchCreateResult struct {
	Created []AccountAdjustment `json:"created"`
	Skipped []AdjustmentEntry   `json:"skipped"`
}

// UpdateAdjustmentRequest replaces type and value outright. Switching
// type does not rescale the stored value; callers supply a fresh value
// appropriate to the new type.
type UpdateAdjustmentRequest struct {
	Type  AdjustmentType  `json:"adjustment_type"`
	Value decimal.Decimal `json:"adjustment_value"`
	Notes *string         `json:"notes,omitempty"`
}

type Service interface {
	Resolve(ctx context.Context, accountID snowflake.ID, serviceCode string, classCode *string) (ResolvedRate, error)
	CreateAdjustments(ctx context.Context, accountID snowflake.ID, entries []AdjustmentEntry) (BatchCreateResult, error)
	ListAdjustments(ctx context.Context, accountID snowflake.ID) ([]AccountAdjustment, error)
	UpdateAdjustment(ctx context.Context, id snowflake.ID, req UpdateAdjustmentRequest) (*AccountAdjustment, error)
	DeleteAdjustment(ctx context.Context, id snowflake.ID) error
}

var (
	ErrRateNotFound          = errors.New("rate_not_found")
	ErrAdjustmentNotFound    = errors.New("adjustment_not_found")
	ErrInvalidAdjustmentType = errors.New("invalid_adjustment_type")
	ErrInvalidServiceCode    = errors.New("invalid_service_code")
	ErrInvalidAccount        = errors.New("invalid_account")
	ErrInvalidOrganization   = errors.New("invalid_organization")
)
