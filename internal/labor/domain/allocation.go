package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is one employee's accumulated regular/overtime minute split.
type Bucket struct {
	RegularMinutes  int64 `json:"regular_minutes"`
	OvertimeMinutes int64 `json:"overtime_minutes"`
}

// TotalMinutes returns the bucket's combined minutes.
func (b Bucket) TotalMinutes() int64 {
	return b.RegularMinutes + b.OvertimeMinutes
}

// CostSummary is one grouping bucket of the labor cost report.
type CostSummary struct {
	TotalHours    decimal.Decimal `json:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	Cost          decimal.Decimal `json:"cost"`
	Count         int             `json:"count"`
}

// ReportView selects the grouping dimension of a cost report.
type ReportView string

const (
	ViewWarehouseRole ReportView = "warehouse_role"
	ViewEmployee      ReportView = "employee"
	ViewTaskType      ReportView = "task_type"
)

type CostReportRequest struct {
	From time.Time  `json:"from"`
	To   time.Time  `json:"to"`
	View ReportView `json:"view"`
}

type CostReportResponse struct {
	Groups  map[string]CostSummary `json:"groups"`
	Buckets map[string]Bucket      `json:"buckets"`
}

type Service interface {
	// CostReport loads the tenant's duration records for a window and
	// runs the overtime and cost allocators under the configured labor
	// parameters.
	CostReport(ctx context.Context, req CostReportRequest) (CostReportResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidView         = errors.New("invalid_view")
)
