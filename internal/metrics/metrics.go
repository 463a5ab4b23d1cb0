package metrics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	replies     *prometheus.CounterVec
	rules       *prometheus.CounterVec
	nluRequests *prometheus.CounterVec
	nluDuration prometheus.Histogram
}

func New(namespace string) *Metrics {
	ns := FmtFixer(namespace)
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Bot replies produced, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "router",
			Name:      "rules_total",
			Help:      "Entity router rule selections.",
		}, []string{"rule"}),
		nluRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "nlu",
			Name:      "requests_total",
			Help:      "Entity extraction calls, by result.",
		}, []string{"result"}),
		nluDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "nlu",
			Name:      "request_duration_seconds",
			Help:      "Entity extraction latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		m.replies,
		m.rules,
		m.nluRequests,
		m.nluDuration,
	)
	return m
}

// ObserveReply counts one bot reply.
func (m *Metrics) ObserveReply(mode, outcome string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(mode, outcome).Inc()
}

// ObserveRule counts one router rule selection.
func (m *Metrics) ObserveRule(rule string) {
	if m == nil {
		return
	}
	m.rules.WithLabelValues(rule).Inc()
}

// ObserveNLU records one extraction call.
func (m *Metrics) ObserveNLU(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.nluRequests.WithLabelValues(result).Inc()
	m.nluDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exports the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
