package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func percentageCode(id int64, value string, createdAt time.Time) PromoCode {
	return PromoCode{
		ID:             snowflake.ID(id),
		Code:           "PCT" + value,
		DiscountType:   DiscountPercentage,
		DiscountValue:  decimal.RequireFromString(value),
		ServiceScope:   ScopeAll,
		ExpirationType: ExpirationNone,
		UsageLimitType: UsageUnlimited,
		IsActive:       true,
		CreatedAt:      createdAt,
	}
}

func fixedCode(id int64, value string, createdAt time.Time) PromoCode {
	code := percentageCode(id, value, createdAt)
	code.Code = "FLAT" + value
	code.DiscountType = DiscountFixed
	return code
}

func TestSelectBestGreatestAbsoluteAmount(t *testing.T) {
	codes := []PromoCode{
		percentageCode(1, "10", testNow.AddDate(0, -1, 0)),
		fixedCode(2, "8", testNow.AddDate(0, -2, 0)),
	}

	// On $100 the percentage wins: $10 > $8.
	best := SelectBest(codes, "storage", decimal.NewFromInt(100), testNow)
	require.NotNil(t, best)
	require.Equal(t, snowflake.ID(1), best.PromoCodeID)
	require.True(t, best.Amount.Equal(decimal.NewFromInt(10)))

	// On $50 the flat code wins: $8 > $5.
	best = SelectBest(codes, "storage", decimal.NewFromInt(50), testNow)
	require.NotNil(t, best)
	require.Equal(t, snowflake.ID(2), best.PromoCodeID)
	require.True(t, best.Amount.Equal(decimal.NewFromInt(8)))
}

func TestSelectBestTieGoesToEarliestCreated(t *testing.T) {
	earlier := fixedCode(1, "8", testNow.AddDate(0, -3, 0))
	later := fixedCode(2, "8", testNow.AddDate(0, -1, 0))

	best := SelectBest([]PromoCode{later, earlier}, "storage", decimal.NewFromInt(100), testNow)
	require.NotNil(t, best)
	require.Equal(t, snowflake.ID(1), best.PromoCodeID)
}

func TestSelectBestSkipsIneligible(t *testing.T) {
	expired := percentageCode(1, "50", testNow.AddDate(0, -6, 0))
	expired.ExpirationType = ExpirationDate
	past := testNow.AddDate(0, 0, -1)
	expired.ExpirationDate = &past

	inactive := percentageCode(2, "50", testNow.AddDate(0, -6, 0))
	inactive.IsActive = false

	exhausted := percentageCode(3, "50", testNow.AddDate(0, -6, 0))
	exhausted.UsageLimitType = UsageLimited
	limit := int64(5)
	exhausted.UsageLimit = &limit
	exhausted.UsageCount = 5

	wrongScope := percentageCode(4, "50", testNow.AddDate(0, -6, 0))
	wrongScope.ServiceScope = ScopeSelected
	wrongScope.SelectedServices = []string{"delivery"}

	survivor := fixedCode(5, "2", testNow.AddDate(0, -1, 0))

	best := SelectBest(
		[]PromoCode{expired, inactive, exhausted, wrongScope, survivor},
		"storage", decimal.NewFromInt(100), testNow,
	)
	require.NotNil(t, best)
	require.Equal(t, snowflake.ID(5), best.PromoCodeID)
}

func TestSelectBestScopedCodeApplies(t *testing.T) {
	scoped := percentageCode(1, "10", testNow.AddDate(0, -1, 0))
	scoped.ServiceScope = ScopeSelected
	scoped.SelectedServices = []string{"storage", "delivery"}

	require.NotNil(t, SelectBest([]PromoCode{scoped}, "delivery", decimal.NewFromInt(40), testNow))
	require.Nil(t, SelectBest([]PromoCode{scoped}, "assembly", decimal.NewFromInt(40), testNow))
}

func TestSelectBestNilWhenNothingApplies(t *testing.T) {
	require.Nil(t, SelectBest(nil, "storage", decimal.NewFromInt(100), testNow))
	// Zero total yields zero amounts everywhere.
	require.Nil(t, SelectBest(
		[]PromoCode{percentageCode(1, "10", testNow)},
		"storage", decimal.Zero, testNow,
	))
}

func TestDiscountAmountCapsFixedAtTotal(t *testing.T) {
	code := fixedCode(1, "50", testNow)
	amount := code.DiscountAmount(decimal.NewFromInt(30))
	require.True(t, amount.Equal(decimal.NewFromInt(30)), "amount %s", amount)
}
