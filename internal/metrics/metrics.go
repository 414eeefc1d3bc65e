package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the signal service.
type Metrics struct {
	PointsEvaluated  prometheus.Counter
	CompositeSignals *prometheus.CounterVec // labels: signal
	EvaluationDur    prometheus.Histogram
	SignalChanges    prometheus.Counter

	// Backtest
	BacktestAccuracy *prometheus.GaugeVec // labels: indicator, event

	// Redis circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisSkippedWrites       *prometheus.CounterVec // labels: op

	// Notifications
	NotifierFailures *prometheus.CounterVec // labels: notifier

	// Stream
	WSClients prometheus.Gauge
}

// NewMetrics registers the metrics on the default registry.
func NewMetrics() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PointsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyclewatch_points_evaluated_total",
			Help: "Series points run through the indicator passes",
		}),
		CompositeSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclewatch_composite_signals_total",
			Help: "Composite results by resolved signal",
		}, []string{"signal"}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cyclewatch_evaluation_duration_seconds",
			Help:    "Wall time of one full series evaluation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SignalChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyclewatch_signal_changes_total",
			Help: "Times the latest composite signal changed",
		}),

		BacktestAccuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cyclewatch_backtest_accuracy_percent",
			Help: "Backtest hit rate by indicator and event type",
		}, []string{"indicator", "event"}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclewatch_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cyclewatch_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisSkippedWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclewatch_redis_skipped_writes_total",
			Help: "Cache writes skipped while the circuit breaker was open",
		}, []string{"op"}),

		NotifierFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyclewatch_notifier_failures_total",
			Help: "Alerts a notifier failed to deliver",
		}, []string{"notifier"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclewatch_ws_clients",
			Help: "Connected status stream clients",
		}),
	}

	reg.MustRegister(
		m.PointsEvaluated,
		m.CompositeSignals,
		m.EvaluationDur,
		m.SignalChanges,
		m.BacktestAccuracy,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisSkippedWrites,
		m.NotifierFailures,
		m.WSClients,
	)
	return m
}

// ObserveSignals counts one evaluation's composite signals.
func (m *Metrics) ObserveSignals(signals []string) {
	m.PointsEvaluated.Add(float64(len(signals)))
	for _, s := range signals {
		m.CompositeSignals.WithLabelValues(s).Inc()
	}
}

// InitSignals creates a zero series for every signal label so dashboards
// see all of them before the first occurrence.
func (m *Metrics) InitSignals(signals []string) {
	for _, s := range signals {
		m.CompositeSignals.WithLabelValues(s)
	}
}

// SetBreakerState records a circuit breaker transition. state follows the
// 0=closed, 1=open, 2=half-open encoding.
func (m *Metrics) SetBreakerState(state int) {
	m.RedisCircuitBreakerState.Set(float64(state))
	if state == 1 {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor exposes the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
