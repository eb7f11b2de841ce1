package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekStartDay(t *testing.T) {
	cases := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"Monday":    time.Monday,
		" saturday": time.Saturday,
		"":          time.Sunday,
		"notaday":   time.Sunday,
	}
	for raw, want := range cases {
		cfg := BillingConfig{WeekStart: raw}
		require.Equal(t, want, cfg.WeekStartDay(), "weekStart %q", raw)
	}
}

func TestValidateBillingConfig(t *testing.T) {
	require.NoError(t, validateBillingConfig(DefaultBillingConfig()))

	bad := DefaultBillingConfig()
	bad.StandardWeeklyMinutes = 0
	require.Error(t, validateBillingConfig(bad))

	bad = DefaultBillingConfig()
	bad.OvertimeMultiplier = 0.5
	require.Error(t, validateBillingConfig(bad))
}

func TestStaticBillingConfigHolder(t *testing.T) {
	cfg := BillingConfig{
		StandardWeeklyMinutes: 1800,
		OvertimeMultiplier:    2,
		WeekStart:             "monday",
	}
	holder := NewStaticBillingConfigHolder(cfg)
	require.Equal(t, cfg, holder.Get())
}
