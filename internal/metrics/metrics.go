package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	replies     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	dictations  *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// New registers every collector. sessions is sampled on each scrape.
func New(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Name:      "chat_replies_total",
			Help:      "Assistant replies by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by outcome.",
		}, []string{"outcome"}),
		dictations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Name:      "dictations_total",
			Help:      "Speech dictations by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agency",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.replies,
		m.submissions,
		m.dictations,
		m.rateLimited,
	)
	if sessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "agency",
			Name:      "widget_sessions",
			Help:      "Live chat widget sessions held in memory.",
		}, func() float64 { return float64(sessions()) }))
	}
	return m
}

// ObserveReply counts an assistant reply outcome.
func (m *Metrics) ObserveReply(outcome string) { m.replies.WithLabelValues(outcome).Inc() }

// ObserveSubmission counts a contact form outcome.
func (m *Metrics) ObserveSubmission(outcome string) { m.submissions.WithLabelValues(outcome).Inc() }

// ObserveDictation counts a dictation outcome.
func (m *Metrics) ObserveDictation(outcome string) { m.dictations.WithLabelValues(outcome).Inc() }

// ObserveRateLimited counts a throttled request.
func (m *Metrics) ObserveRateLimited() { m.rateLimited.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
