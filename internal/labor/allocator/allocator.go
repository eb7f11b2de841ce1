// Package allocator holds the pure labor allocation functions: weekly
// overtime bucketing and proportional cost grouping. Both are
// deterministic over caller-supplied sets so reports can be re-run over
// narrowed selections without touching storage.
package allocator

import (
	"time"

	"github.com/bwmarrin/snowflake"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
)

// Allocate splits each employee's task minutes into regular and overtime
// buckets per week, summed across all weeks in the record set. Only
// overtime-eligible employees accrue an overtime bucket; everyone else's
// time is entirely regular. Employees without a pay profile are treated
// as not overtime-eligible.
func Allocate(
	records []labordomain.TaskDurationRecord,
	profiles map[snowflake.ID]labordomain.EmployeePayProfile,
	standardWeeklyMinutes int64,
	weekStart time.Weekday,
) map[snowflake.ID]labordomain.Bucket {
	result := make(map[snowflake.ID]labordomain.Bucket)

	// Per-employee, per-week accumulation for eligible employees only.
	weekly := make(map[snowflake.ID]map[time.Time]int64)

	for _, record := range records {
		if record.DurationMinutes <= 0 {
			continue
		}
		profile, ok := profiles[record.EmployeeID]
		if !ok || !profile.OvertimeEligible {
			bucket := result[record.EmployeeID]
			bucket.RegularMinutes += record.DurationMinutes
			result[record.EmployeeID] = bucket
			continue
		}

		weeks, ok := weekly[record.EmployeeID]
		if !ok {
			weeks = make(map[time.Time]int64)
			weekly[record.EmployeeID] = weeks
		}
		weeks[WeekAnchor(record.CompletedAt, weekStart)] += record.DurationMinutes
	}

	for employeeID, weeks := range weekly {
		bucket := result[employeeID]
		for _, minutes := range weeks {
			if minutes > standardWeeklyMinutes {
				bucket.RegularMinutes += standardWeeklyMinutes
				bucket.OvertimeMinutes += minutes - standardWeeklyMinutes
			} else {
				bucket.RegularMinutes += minutes
			}
		}
		result[employeeID] = bucket
	}

	return result
}

// WeekAnchor returns midnight UTC of the week-start day containing t.
// The week-start weekday is configuration, not a constant: moving it
// shifts overtime boundaries materially.
func WeekAnchor(t time.Time, weekStart time.Weekday) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
