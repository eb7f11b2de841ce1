// Package domain contains labor-tracking models consumed by the cost
// allocation engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PayType string

const (
	PayHourly PayType = "hourly"
	PaySalary PayType = "salary"
)

// standardAnnualWorkHours converts an annual salary to an hourly
// equivalent when no explicit one is configured (52 weeks x 40 hours).
const standardAnnualWorkHours = 2080

// TaskDurationRecord is one completed task's labor time. Read-only input
// to allocation; one row per completed task.
type TaskDurationRecord struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	OrgID           snowflake.ID  `gorm:"not null;index"`
	EmployeeID      snowflake.ID  `gorm:"not null;index"`
	WarehouseID     *snowflake.ID `gorm:"index"`
	TaskType        string        `gorm:"type:text;not null"`
	DurationMinutes int64         `gorm:"not null"`
	CompletedAt     time.Time     `gorm:"not null;index"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaskDurationRecord) TableName() string { return "task_duration_records" }

// EmployeePayProfile determines the hourly rate used in cost allocation.
type EmployeePayProfile struct {
	ID                     snowflake.ID     `gorm:"primaryKey"`
	OrgID                  snowflake.ID     `gorm:"not null;index"`
	EmployeeID             snowflake.ID     `gorm:"not null;uniqueIndex:ux_pay_profile_employee"`
	DisplayName            string           `gorm:"type:text"`
	Role                   string           `gorm:"type:text"`
	PayType                PayType          `gorm:"type:text;not null"`
	PayRate                decimal.Decimal  `gorm:"type:numeric(14,4);not null"`
	SalaryHourlyEquivalent *decimal.Decimal `gorm:"type:numeric(14,4)"`
	OvertimeEligible       bool             `gorm:"not null;default:false"`
	CreatedAt              time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (EmployeePayProfile) TableName() string { return "employee_pay_profiles" }

// HourlyRate returns the rate used for cost allocation. Salaried
// profiles fall back to an annualized conversion when no explicit hourly
// equivalent is set.
func (p EmployeePayProfile) HourlyRate() decimal.Decimal {
	switch p.PayType {
	case PayHourly:
		return p.PayRate
	case PaySalary:
		if p.SalaryHourlyEquivalent != nil {
			return *p.SalaryHourlyEquivalent
		}
		return p.PayRate.Div(decimal.NewFromInt(standardAnnualWorkHours))
	}
	return decimal.Zero
}
