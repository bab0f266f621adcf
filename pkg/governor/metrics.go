package governor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the governor.
type Metrics struct {
	checks           *prometheus.CounterVec
	rotations        *prometheus.CounterVec
	suppressed       prometheus.Counter
	spendPercentage  prometheus.Gauge
	providersRotated prometheus.Counter
	providersSkipped prometheus.Counter
	failOpen         prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// newMetrics returns the process-wide governor metrics. Collectors
// register with the default registry exactly once.
func newMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			checks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saturn_governor_checks_total",
					Help: "Total number of cap checks performed",
				},
				[]string{"result"},
			),

			rotations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saturn_governor_rotations_total",
					Help: "Total number of credential rotations attempted",
				},
				[]string{"trigger", "outcome"},
			),

			suppressed: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "saturn_governor_rotations_suppressed_total",
					Help: "Total rotations suppressed by the cooldown window",
				},
			),

			spendPercentage: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "saturn_governor_spend_percentage",
					Help: "Current month spend as a percentage of the active cap",
				},
			),

			providersRotated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "saturn_governor_providers_rotated_total",
					Help: "Total providers successfully rotated to a fallback credential",
				},
			),

			providersSkipped: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "saturn_governor_providers_skipped_total",
					Help: "Total providers that could not be rotated for lack of a candidate",
				},
			),

			failOpen: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "saturn_governor_fail_open_total",
					Help: "Total tier queries answered premium because spend could not be read",
				},
			),
		}
	})
	return metricsInst
}

// RecordCheck records a cap check outcome.
func (m *Metrics) RecordCheck(triggered bool) {
	result := "within_cap"
	if triggered {
		result = "over_cap"
	}
	m.checks.WithLabelValues(result).Inc()
}

// RecordRotation records one rotation attempt.
func (m *Metrics) RecordRotation(trigger string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	m.rotations.WithLabelValues(trigger, outcome).Inc()
}

// RecordSuppressed records a rotation skipped by the cooldown.
func (m *Metrics) RecordSuppressed() {
	m.suppressed.Inc()
}

// RecordFailOpen records a tier query that failed open to premium.
func (m *Metrics) RecordFailOpen() {
	m.failOpen.Inc()
}

// UpdateSpendPercentage updates the spend-vs-cap gauge.
func (m *Metrics) UpdateSpendPercentage(percentage float64) {
	m.spendPercentage.Set(percentage)
}
