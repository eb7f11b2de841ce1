package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Recorder exposes the billing core counters.
type Recorder struct {
	registry *prometheus.Registry

	draftsCreated    *prometheus.CounterVec
	eventsClaimed    prometheus.Counter
	rateErrors       prometheus.Counter
	discountsApplied prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		draftsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warebill",
			Name:      "invoice_drafts_created_total",
			Help:      "Invoice drafts created, by grouping strategy.",
		}, []string{"grouping"}),
		eventsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warebill",
			Name:      "billing_events_claimed_total",
			Help:      "Billing events claimed onto invoice drafts.",
		}),
		rateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warebill",
			Name:      "rate_resolution_errors_total",
			Help:      "Billing events created with a rate resolution error.",
		}),
		discountsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warebill",
			Name:      "promo_discounts_applied_total",
			Help:      "Promo discounts rendered onto invoice lines.",
		}),
	}

	registry.MustRegister(
		r.draftsCreated,
		r.eventsClaimed,
		r.rateErrors,
		r.discountsApplied,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) DraftCreated(grouping string) {
	r.draftsCreated.WithLabelValues(grouping).Inc()
}

func (r *Recorder) EventsClaimed(n int) {
	r.eventsClaimed.Add(float64(n))
}

func (r *Recorder) RateError() {
	r.rateErrors.Inc()
}

func (r *Recorder) DiscountApplied() {
	r.discountsApplied.Inc()
}

var Module = fx.Module("metrics",
	fx.Provide(NewRecorder),
)
