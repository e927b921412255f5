package scoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankTotal      = "feedrank_rank_total"
	MetricRankDuration   = "feedrank_rank_duration_seconds"
	MetricRankBatchSize  = "feedrank_rank_batch_size"
	MetricPenalizedTotal = "feedrank_penalized_posts_total"
	MetricRecoveredTotal = "feedrank_recovered_posts_total"
)

// Metrics contains Prometheus metrics for ranking passes. All
// operations are thread-safe.
type Metrics struct {
	rankTotal      prometheus.Counter
	rankDuration   prometheus.Histogram
	rankBatchSize  prometheus.Histogram
	penalizedTotal prometheus.Counter
	recoveredTotal prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call Register
// to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankTotal,
			Help: "Total number of ranking passes",
		}),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of ranking pass duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		rankBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankBatchSize,
			Help:    "Histogram of candidate batch sizes per ranking pass",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		penalizedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPenalizedTotal,
			Help: "Total number of posts that accrued a spam or duplicate penalty",
		}),
		recoveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecoveredTotal,
			Help: "Total number of posts assigned a zero score after a scoring failure",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRank records one ranking pass: its duration and batch size.
func (m *Metrics) ObserveRank(d time.Duration, batchSize int) {
	m.rankTotal.Inc()
	m.rankDuration.Observe(d.Seconds())
	m.rankBatchSize.Observe(float64(batchSize))
}

// AddPenalized adds to the penalized-post counter.
func (m *Metrics) AddPenalized(n int) {
	if n > 0 {
		m.penalizedTotal.Add(float64(n))
	}
}

// AddRecovered adds to the recovered-post counter.
func (m *Metrics) AddRecovered(n int) {
	if n > 0 {
		m.recoveredTotal.Add(float64(n))
	}
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankTotal,
		m.rankDuration,
		m.rankBatchSize,
		m.penalizedTotal,
		m.recoveredTotal,
	}
}
