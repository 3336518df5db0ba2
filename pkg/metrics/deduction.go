package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "credlio"

// Deduction outcomes recorded by the lifecycle driver and webhook handler.
const (
	OutcomeCompleted = "completed"
	OutcomeRetry     = "retry"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
	OutcomeChained   = "chained"
)

// DeductionMetrics counts deduction attempts and their outcomes.
type DeductionMetrics struct {
	outcomes     *prometheus.CounterVec
	chargedMinor *prometheus.CounterVec
}

func NewDeductionMetrics(reg prometheus.Registerer) *DeductionMetrics {
	if reg == nil {
		return &DeductionMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deduction_outcomes_total",
		Help:      "Scheduled deduction outcomes by result.",
	}, []string{"outcome"})
	charged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deduction_charged_minor_total",
		Help:      "Gross amount charged successfully, in minor units.",
	}, []string{"currency"})
	reg.MustRegister(outcomes, charged)
	return &DeductionMetrics{outcomes: outcomes, chargedMinor: charged}
}

func (m *DeductionMetrics) Inc(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *DeductionMetrics) AddCharged(currency string, amountMinor int64) {
	if m == nil || m.chargedMinor == nil || amountMinor <= 0 {
		return
	}
	m.chargedMinor.WithLabelValues(normalizeLabel(currency)).Add(float64(amountMinor))
}
