package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tenant-operator tunables that shape labor cost
// and invoice assembly. It is hot-reloadable: week-start and overtime
// thresholds change payroll boundaries, so operators adjust them without
// a redeploy.
type BillingConfig struct {
	StandardWeeklyMinutes int64   `mapstructure:"standardWeeklyMinutes"`
	OvertimeMultiplier    float64 `mapstructure:"overtimeMultiplier"`
	WeekStart             string  `mapstructure:"weekStart"`
	DefaultLineSort       string  `mapstructure:"defaultLineSort"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		StandardWeeklyMinutes: 2400, // 40h
		OvertimeMultiplier:    1.5,
		WeekStart:             "sunday",
		DefaultLineSort:       "date",
	}
}

// WeekStartDay maps the configured week-start name to a time.Weekday.
// Unknown values fall back to Sunday.
func (c BillingConfig) WeekStartDay() time.Weekday {
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/warebill/config")
	v.AddConfigPath("/etc/warebill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WAREBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.standardWeeklyMinutes", defaults.StandardWeeklyMinutes)
	v.SetDefault("billing.overtimeMultiplier", defaults.OvertimeMultiplier)
	v.SetDefault("billing.weekStart", defaults.WeekStart)
	v.SetDefault("billing.defaultLineSort", defaults.DefaultLineSort)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// NewStaticBillingConfigHolder wraps a fixed config, used by tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.StandardWeeklyMinutes <= 0 {
		return errors.New("billing.standardWeeklyMinutes must be positive")
	}
	if cfg.OvertimeMultiplier < 1 {
		return errors.New("billing.overtimeMultiplier must be >= 1")
	}
	return nil
}
