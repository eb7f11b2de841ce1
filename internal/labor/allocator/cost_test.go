package allocator

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
)

var overtime15 = decimal.NewFromFloat(1.5)

func TestAllocateCostProportionalOvertime(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	completed := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	// 3000 total minutes with 600 overtime: every task carries a 20%
	// overtime share regardless of when in the week it ran.
	records := []labordomain.TaskDurationRecord{
		record(employee, 1500, completed),
		record(employee, 1500, completed.AddDate(0, 0, 2)),
	}
	buckets := map[snowflake.ID]labordomain.Bucket{
		employee: {RegularMinutes: 2400, OvertimeMinutes: 600},
	}
	profile := eligibleProfile(employee)
	profile.PayRate = decimal.NewFromInt(20)
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{employee: profile}

	summaries := AllocateCost(records, buckets, profiles, overtime15, ByEmployee{})

	summary := summaries[employee.String()]
	require.Equal(t, 2, summary.Count)
	require.True(t, summary.TotalHours.Equal(decimal.NewFromInt(50)), "total hours %s", summary.TotalHours)
	require.True(t, summary.OvertimeHours.Equal(decimal.NewFromInt(10)), "overtime hours %s", summary.OvertimeHours)
	require.True(t, summary.RegularHours.Equal(decimal.NewFromInt(40)), "regular hours %s", summary.RegularHours)
	// 40h * 20 + 10h * 20 * 1.5 = 1100
	require.True(t, summary.Cost.Equal(decimal.NewFromInt(1100)), "cost %s", summary.Cost)
}

func TestAllocateCostSalaryFallbackRate(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	completed := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	records := []labordomain.TaskDurationRecord{record(employee, 120, completed)}
	buckets := map[snowflake.ID]labordomain.Bucket{employee: {RegularMinutes: 120}}
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{
		employee: {
			EmployeeID: employee,
			PayType:    labordomain.PaySalary,
			// 104000 / 2080 = 50/h
			PayRate: decimal.NewFromInt(104000),
		},
	}

	summaries := AllocateCost(records, buckets, profiles, overtime15, ByEmployee{})

	summary := summaries[employee.String()]
	require.True(t, summary.Cost.Equal(decimal.NewFromInt(100)), "cost %s", summary.Cost)
}

func TestAllocateCostSalaryExplicitEquivalentWins(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	completed := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	equivalent := decimal.NewFromInt(45)
	records := []labordomain.TaskDurationRecord{record(employee, 60, completed)}
	buckets := map[snowflake.ID]labordomain.Bucket{employee: {RegularMinutes: 60}}
	profiles := map[snowflake.ID]labordomain.EmployeePayProfile{
		employee: {
			EmployeeID:             employee,
			PayType:                labordomain.PaySalary,
			PayRate:                decimal.NewFromInt(104000),
			SalaryHourlyEquivalent: &equivalent,
		},
	}

	summaries := AllocateCost(records, buckets, profiles, overtime15, ByEmployee{})

	require.True(t, summaries[employee.String()].Cost.Equal(equivalent))
}

func TestAllocateCostUnassignedBuckets(t *testing.T) {
	node := mustNode(t)
	employee := node.Generate()
	completed := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	noWarehouse := record(employee, 60, completed)
	noWarehouse.WarehouseID = nil

	noType := record(employee, 60, completed)
	noType.TaskType = ""

	buckets := map[snowflake.ID]labordomain.Bucket{employee: {RegularMinutes: 120}}

	// No pay profile at all: role and rate are both unknown.
	byRole := AllocateCost([]labordomain.TaskDurationRecord{noWarehouse}, buckets, nil, overtime15, ByWarehouseRole{})
	summary, ok := byRole[UnassignedKey+"|"+UnassignedKey]
	require.True(t, ok, "expected unassigned bucket, got %v", byRole)
	require.Equal(t, 1, summary.Count)
	require.True(t, summary.Cost.IsZero())

	byType := AllocateCost([]labordomain.TaskDurationRecord{noType}, buckets, nil, overtime15, ByTaskType{})
	_, ok = byType[UnassignedKey]
	require.True(t, ok, "expected unassigned bucket, got %v", byType)
}

func TestForView(t *testing.T) {
	for _, view := range []labordomain.ReportView{
		labordomain.ViewWarehouseRole,
		labordomain.ViewEmployee,
		labordomain.ViewTaskType,
	} {
		_, ok := ForView(view)
		require.True(t, ok, "view %s", view)
	}
	_, ok := ForView(labordomain.ReportView("bogus"))
	require.False(t, ok)
}
