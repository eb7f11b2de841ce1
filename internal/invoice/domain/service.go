package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreateDraftRequest selects unbilled events and a grouping strategy.
// AccountID is required for account-scoped groupings; a nil AccountID is
// only meaningful for by_account and by_account_sidemark batches built
// from a pre-filtered multi-account selection.
type CreateDraftRequest struct {
	AccountID              *snowflake.ID    `json:"account_id,omitempty"`
	PeriodStart            time.Time        `json:"period_start"`
	PeriodEnd              time.Time        `json:"period_end"`
	Grouping               GroupingStrategy `json:"grouping"`
	SidemarkFilter         *snowflake.ID    `json:"sidemark_filter,omitempty"`
	IncludeEarlierUnbilled bool             `json:"include_earlier_unbilled"`
	LineSort               LineSort         `json:"line_sort,omitempty"`
	InvoiceType            string           `json:"invoice_type,omitempty"`
}

type Service interface {
	// CreateDraft assembles zero or more drafts from the selected
	// unbilled events, atomically claiming each constituent event so no
	// event can ever land on two drafts.
	CreateDraft(ctx context.Context, req CreateDraftRequest) ([]InvoiceDraft, error)
	GetByID(ctx context.Context, id snowflake.ID) (InvoiceDraft, error)
	MarkSent(ctx context.Context, id snowflake.ID) error
	MarkPaid(ctx context.Context, id snowflake.ID) error
	// VoidDraft is a terminal write-off; constituent events are not
	// returned to unbilled.
	VoidDraft(ctx context.Context, id snowflake.ID, reason string) error
}

var (
	ErrInvalidOrganization         = errors.New("invalid_organization")
	ErrInvalidAccount              = errors.New("invalid_account")
	ErrInvalidPeriod               = errors.New("invalid_period")
	ErrInvalidGrouping             = errors.New("invalid_grouping")
	ErrInvalidGroupingForSelection = errors.New("invalid_grouping_for_selection")
	ErrInvoiceNotFound             = errors.New("invoice_not_found")
	ErrInvalidStatusTransition     = errors.New("invalid_status_transition")
)
