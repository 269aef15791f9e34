package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for chat requests.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeUpstream    = "upstream_error"
	OutcomeError       = "error"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	chatRequests  *prometheus.CounterVec
	embedRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	storedChunks  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome", "stream"}),
		embedRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio_rag",
			Name:      "embed_runs_total",
			Help:      "Embed pipeline runs by result.",
		}, []string{"success"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio_rag",
			Name:      "stage_duration_seconds",
			Help:      "Latency of embed, retrieve and generate calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		storedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portfolio_rag",
			Name:      "stored_chunks",
			Help:      "Chunks written by the last successful embed run.",
		}),
	}
	reg.MustRegister(
		m.chatRequests,
		m.embedRuns,
		m.stageDuration,
		m.storedChunks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Chat counts one finished chat request.
func (m *Metrics) Chat(outcome string, stream bool) {
	if m == nil {
		return
	}
	s := "false"
	if stream {
		s = "true"
	}
	m.chatRequests.WithLabelValues(outcome, s).Inc()
}

// EmbedRun counts one pipeline run and, on success, the chunks it stored.
func (m *Metrics) EmbedRun(success bool, chunks int) {
	if m == nil {
		return
	}
	if success {
		m.embedRuns.WithLabelValues("true").Inc()
		m.storedChunks.Set(float64(chunks))
		return
	}
	m.embedRuns.WithLabelValues("false").Inc()
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
