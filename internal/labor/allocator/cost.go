package allocator

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
)

// UnassignedKey buckets records missing a grouping dimension instead of
// dropping them.
const UnassignedKey = "unassigned"

var minutesPerHour = decimal.NewFromInt(60)

// GroupKeyExtractor produces the grouping key for one record. The
// allocation arithmetic is identical across views; only key extraction
// differs.
type GroupKeyExtractor interface {
	Key(record labordomain.TaskDurationRecord, profile *labordomain.EmployeePayProfile) string
}

// ByWarehouseRole groups by warehouse and the employee's role.
type ByWarehouseRole struct{}

func (ByWarehouseRole) Key(record labordomain.TaskDurationRecord, profile *labordomain.EmployeePayProfile) string {
	warehouse := UnassignedKey
	if record.WarehouseID != nil && *record.WarehouseID != 0 {
		warehouse = record.WarehouseID.String()
	}
	role := UnassignedKey
	if profile != nil && profile.Role != "" {
		role = profile.Role
	}
	return warehouse + "|" + role
}

// ByEmployee groups by employee.
type ByEmployee struct{}

func (ByEmployee) Key(record labordomain.TaskDurationRecord, _ *labordomain.EmployeePayProfile) string {
	return record.EmployeeID.String()
}

// ByTaskType groups by task type.
type ByTaskType struct{}

func (ByTaskType) Key(record labordomain.TaskDurationRecord, _ *labordomain.EmployeePayProfile) string {
	if record.TaskType == "" {
		return UnassignedKey
	}
	return record.TaskType
}

// ForView returns the extractor for a report view.
func ForView(view labordomain.ReportView) (GroupKeyExtractor, bool) {
	switch view {
	case labordomain.ViewWarehouseRole:
		return ByWarehouseRole{}, true
	case labordomain.ViewEmployee:
		return ByEmployee{}, true
	case labordomain.ViewTaskType:
		return ByTaskType{}, true
	}
	return nil, false
}

// AllocateCost distributes labor cost across grouping buckets. Each
// record's overtime share uses the employee's aggregate ratio from the
// weekly buckets, not per-task classification: weekly totals are the
// tracked grain, so cost is spread proportionally across all of the
// employee's tasks in the filtered set.
func AllocateCost(
	records []labordomain.TaskDurationRecord,
	buckets map[snowflake.ID]labordomain.Bucket,
	profiles map[snowflake.ID]labordomain.EmployeePayProfile,
	overtimeMultiplier decimal.Decimal,
	extractor GroupKeyExtractor,
) map[string]labordomain.CostSummary {
	ratios := make(map[snowflake.ID]decimal.Decimal, len(buckets))
	for employeeID, bucket := range buckets {
		total := bucket.TotalMinutes()
		if total <= 0 || bucket.OvertimeMinutes <= 0 {
			ratios[employeeID] = decimal.Zero
			continue
		}
		ratios[employeeID] = decimal.NewFromInt(bucket.OvertimeMinutes).
			Div(decimal.NewFromInt(total))
	}

	result := make(map[string]labordomain.CostSummary)
	for _, record := range records {
		if record.DurationMinutes <= 0 {
			continue
		}

		var profile *labordomain.EmployeePayProfile
		if p, ok := profiles[record.EmployeeID]; ok {
			profile = &p
		}

		hours := decimal.NewFromInt(record.DurationMinutes).Div(minutesPerHour)
		overtimeHours := hours.Mul(ratios[record.EmployeeID])
		regularHours := hours.Sub(overtimeHours)

		var hourlyRate decimal.Decimal
		if profile != nil {
			hourlyRate = profile.HourlyRate()
		}
		cost := regularHours.Mul(hourlyRate).
			Add(overtimeHours.Mul(hourlyRate).Mul(overtimeMultiplier))

		key := extractor.Key(record, profile)
		summary := result[key]
		summary.TotalHours = summary.TotalHours.Add(hours)
		summary.RegularHours = summary.RegularHours.Add(regularHours)
		summary.OvertimeHours = summary.OvertimeHours.Add(overtimeHours)
		summary.Cost = summary.Cost.Add(cost)
		summary.Count++
		result[key] = summary
	}

	return result
}
