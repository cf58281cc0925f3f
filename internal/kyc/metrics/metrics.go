package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the kyc module. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Orchestrator operations by name and outcome ("ok" or an error code)
	Operations *prometheus.CounterVec

	OperationLatency *prometheus.HistogramVec

	// Persisted status changes
	Transitions *prometheus.CounterVec

	// Webhooks by driver and outcome
	Webhooks *prometheus.CounterVec

	NotificationFailures *prometheus.CounterVec

	// Reference lock wait time
	LockWait prometheus.Histogram
}

// New registers the kyc metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the kyc metrics with reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_operations_total",
			Help: "Total KYC operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_operation_duration_seconds",
			Help:    "Duration of KYC operations including provider calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_status_transitions_total",
			Help: "Total persisted status changes by driver and status pair",
		}, []string{"driver", "from", "to"}),

		Webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_webhooks_total",
			Help: "Total provider webhooks by driver and outcome",
		}, []string{"driver", "outcome"}),

		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_notification_failures_total",
			Help: "Total notification deliveries that failed, by kind",
		}, []string{"kind"}),

		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_lock_wait_duration_seconds",
			Help:    "Time spent waiting for a per-reference lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveOperation records one orchestrator call.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTransition(driver, from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(driver, from, to).Inc()
	}
}

func (m *Metrics) IncrementWebhook(driver, outcome string) {
	if m != nil {
		m.Webhooks.WithLabelValues(driver, outcome).Inc()
	}
}

func (m *Metrics) IncrementNotificationFailure(kind string) {
	if m != nil {
		m.NotificationFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m != nil {
		m.LockWait.Observe(d.Seconds())
	}
}
