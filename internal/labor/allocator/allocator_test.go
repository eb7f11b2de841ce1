package allocator

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
)

const standardWeek = 2400

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func record(employeeID snowflake.ID, minutes int64, completedAt time.Time) labordomain.TaskDurationRecord {
	return labordomain.TaskDurationRecord{
		EmployeeID:      employeeID,
		TaskType:        "picking",
		DurationMinutes: minutes,
		CompletedAt:     completedAt,
	}
}

func eligibleProfile(employeeID snowflake.ID) labordomain.EmployeePayProfile {
	return labordomain.EmployeePayProfile{
		EmployeeID:       employeeID,
		PayType:          labordomain.PayHourly,
		OvertimeEligible: true,
	}
}

func TestAllocateSplitsWeeklyOvertime(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	// Mon Jan 5 through Fri Jan 9 2026 all land in the week anchored at
	// Sunday Jan 4.
	week := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	records := []labordomain.TaskDurationRecord{
		record(employee, 1200, week),
		record(employee, 800, week.AddDate(0, 0, 1)),
		record(employee, 500, week.AddDate(0, 0, 3)),
	}
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{
		employee: eligibleProfile(employee),
	}

	buckets := Allocate(records, profiles, standardWeek, time.Sunday)

	require.Equal(t, int64(2400), buckets[employee].RegularMinutes)
	require.Equal(t, int64(100), buckets[employee].OvertimeMinutes)
}

func TestAllocateNonEligibleAllRegular(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	week := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	profile := eligibleProfile(employee)
	profile.OvertimeEligible = false

	buckets := Allocate(
		[]labordomain.TaskDurationRecord{record(employee, 3000, week)},
		map[snowflake.ID]labordomain.EmployeePayProfile{employee: profile},
		standardWeek,
		time.Sunday,
	)

	require.Equal(t, int64(3000), buckets[employee].RegularMinutes)
	require.Zero(t, buckets[employee].OvertimeMinutes)
}

func TestAllocateMissingProfileAllRegular(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	week := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	buckets := Allocate(
		[]labordomain.TaskDurationRecord{record(employee, 2600, week)},
		nil,
		standardWeek,
		time.Sunday,
	)

	require.Equal(t, int64(2600), buckets[employee].RegularMinutes)
	require.Zero(t, buckets[employee].OvertimeMinutes)
}

func TestAllocateWeekStartMovesBoundary(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	saturday := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)

	records := []labordomain.TaskDurationRecord{
		record(employee, 1300, saturday),
		record(employee, 1300, sunday),
	}
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{
		employee: eligibleProfile(employee),
	}

	// Sunday start puts the two days in different weeks: no overtime.
	sundayStart := Allocate(records, profiles, standardWeek, time.Sunday)
	require.Zero(t, sundayStart[employee].OvertimeMinutes)

	// Monday start keeps Sat+Sun in one week: 2600 total, 200 overtime.
	mondayStart := Allocate(records, profiles, standardWeek, time.Monday)
	require.Equal(t, int64(200), mondayStart[employee].OvertimeMinutes)
	require.Equal(t, int64(2400), mondayStart[employee].RegularMinutes)
}

func TestAllocateSumsAcrossWeeks(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()

	records := []labordomain.TaskDurationRecord{
		record(employee, 2500, time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)),
		record(employee, 2700, time.Date(2026, 1, 13, 8, 0, 0, 0, time.UTC)),
	}
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{
		employee: eligibleProfile(employee),
	}

	buckets := Allocate(records, profiles, standardWeek, time.Sunday)

	require.Equal(t, int64(4800), buckets[employee].RegularMinutes)
	require.Equal(t, int64(400), buckets[employee].OvertimeMinutes)
}

func TestWeekAnchor(t *testing.T) {
	// Thursday Jan 8 2026.
	thursday := time.Date(2026, 1, 8, 23, 30, 0, 0, time.UTC)

	require.Equal(t,
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
		WeekAnchor(thursday, time.Sunday),
	)
	require.Equal(t,
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		WeekAnchor(thursday, time.Monday),
	)
	// Anchor day maps to itself.
	sunday := time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC)
	require.Equal(t,
		time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
		WeekAnchor(sunday, time.Sunday),
	)
}
