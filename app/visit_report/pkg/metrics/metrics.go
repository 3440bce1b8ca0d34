package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "visit_report"

// Metrics collectors of the report pipeline. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reports       *prometheus.CounterVec
	duration      prometheus.Histogram
	substitutions prometheus.Histogram
	leftovers     prometheus.Counter
	imageErrors   prometheus.Counter
	mails         *prometheus.CounterVec
}

// New registers the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report generation runs by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time from submission to archived report.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		substitutions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "substitutions",
			Help:      "Substitutions emitted per report.",
			Buckets:   prometheus.LinearBuckets(0, 25, 8),
		}),
		leftovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leftover_tokens_total",
			Help:      "Template tokens left unfilled.",
		}),
		imageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_errors_total",
			Help:      "Photos that could not be embedded.",
		}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mails_total",
			Help:      "Mails by kind (group, individual) and result.",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reports, m.duration, m.substitutions, m.leftovers, m.imageErrors, m.mails,
	)
	return m
}

// Handler exposition endpoint for the private registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry underlying registry, for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun counts one finished run
func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveDocument records the fill statistics of one document
func (m *Metrics) ObserveDocument(substitutions, leftovers, imageErrors int) {
	if m == nil {
		return
	}
	m.substitutions.Observe(float64(substitutions))
	m.leftovers.Add(float64(leftovers))
	m.imageErrors.Add(float64(imageErrors))
}

// ObserveMail counts one mail attempt
func (m *Metrics) ObserveMail(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.mails.WithLabelValues(kind, result).Inc()
}
