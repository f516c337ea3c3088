package metrics

import (
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RetentionMetrics интерфейс для метрик удержания клиентов
type RetentionMetrics interface {
	IncCustomerFlagged(category string, severity string)
	IncStatusTransition(from string, to string)
	IncInterventionRecorded(outcome string)
	IncTransitionRejected(from string, to string)
	ObserveRiskScore(score int)
}

type retentionMetrics struct {
	log                 *logger.Logger
	customersFlagged    *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	interventions       *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	riskScores          prometheus.Histogram
}

// NewRetentionMetrics создает новые метрики удержания
func NewRetentionMetrics(registry *prometheus.Registry, log *logger.Logger) RetentionMetrics {
	customersFlagged := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_customers_flagged_total",
			Help: "The total number of customers flagged as at-risk",
		},
		[]string{"category", "severity"},
	)

	statusTransitions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_status_transitions_total",
			Help: "The total number of account status transitions",
		},
		[]string{"from", "to"},
	)

	interventions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_interventions_total",
			Help: "The total number of recorded interventions by outcome",
		},
		[]string{"outcome"},
	)

	transitionsRejected := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_transitions_rejected_total",
			Help: "The total number of rejected status transitions",
		},
		[]string{"from", "to"},
	)

	riskScores := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_risk_score",
			Help:    "Risk score distribution of flagged customers",
			Buckets: prometheus.LinearBuckets(10, 10, 10), // 10..100
		},
	)

	return &retentionMetrics{
		log:                 log,
		customersFlagged:    customersFlagged,
		statusTransitions:   statusTransitions,
		interventions:       interventions,
		transitionsRejected: transitionsRejected,
		riskScores:          riskScores,
	}
}

// IncCustomerFlagged увеличивает счетчик клиентов в зоне риска
func (m *retentionMetrics) IncCustomerFlagged(category string, severity string) {
	m.customersFlagged.WithLabelValues(category, severity).Inc()
}

// IncStatusTransition увеличивает счетчик переходов статусов
func (m *retentionMetrics) IncStatusTransition(from string, to string) {
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// IncInterventionRecorded увеличивает счетчик интервенций
func (m *retentionMetrics) IncInterventionRecorded(outcome string) {
	m.interventions.WithLabelValues(outcome).Inc()
}

// IncTransitionRejected увеличивает счетчик отклоненных переходов
func (m *retentionMetrics) IncTransitionRejected(from string, to string) {
	m.transitionsRejected.WithLabelValues(from, to).Inc()
}

// ObserveRiskScore записывает значение оценки риска
func (m *retentionMetrics) ObserveRiskScore(score int) {
	m.riskScores.Observe(float64(score))
}
