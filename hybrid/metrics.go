package hybrid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 是编排器的 Prometheus 指标。nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         prometheus.Histogram
	sourceCandidates *prometheus.HistogramVec
	sourceFailures   *prometheus.CounterVec
	resultSize       prometheus.Histogram
	anchorMiss       prometheus.Counter
}

// NewMetrics 在 reg 上注册指标；测试中传入 prometheus.NewRegistry() 避免重复注册。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybrid_requests_total",
				Help: "Total number of hybrid recommendation requests",
			},
			[]string{"scene"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hybrid_request_duration_seconds",
				Help:    "Hybrid recommendation latency in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		sourceCandidates: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hybrid_source_candidates",
				Help:    "Number of candidates returned per source",
				Buckets: []float64{0, 5, 10, 20, 40, 80, 160, 320},
			},
			[]string{"source"},
		),
		sourceFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hybrid_source_failures_total",
				Help: "Candidate source errors and timeouts, degraded to an empty list",
			},
			[]string{"source"},
		),
		resultSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hybrid_result_size",
				Help:    "Number of recommendations returned",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
		anchorMiss: f.NewCounter(
			prometheus.CounterOpts{
				Name: "hybrid_anchor_metadata_miss_total",
				Help: "Requests whose anchor item metadata could not be resolved",
			},
		),
	}
}

func (m *Metrics) observeRequest(scene string, seconds float64, size int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(scene).Inc()
	m.duration.Observe(seconds)
	m.resultSize.Observe(float64(size))
}

func (m *Metrics) observeSource(source string, candidates int, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.sourceFailures.WithLabelValues(source).Inc()
		return
	}
	m.sourceCandidates.WithLabelValues(source).Observe(float64(candidates))
}

func (m *Metrics) anchorMetadataMiss() {
	if m == nil {
		return
	}
	m.anchorMiss.Inc()
}
