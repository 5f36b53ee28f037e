// Package metrics exposes campaign counters, LLM latency and breaker state
// to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Metrics owns a registry so several instances (tests, one per server) do
// not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	SitesScanned   prometheus.Counter
	LeadsQualified prometheus.Counter
	LeadsRecorded  prometheus.Counter
	SocialsFound   prometheus.Counter
	StepFailures   *prometheus.CounterVec
	LLMDuration    *prometheus.HistogramVec
	LLMErrors      *prometheus.CounterVec
}

// New creates and registers the collectors. breakers may be nil.
func New(breakers *resilience.Breakers) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SitesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outreach_sites_scanned_total",
			Help: "Candidate sites whose scrape was attempted.",
		}),
		LeadsQualified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outreach_leads_qualified_total",
			Help: "Candidates that passed qualification.",
		}),
		LeadsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outreach_leads_recorded_total",
			Help: "Leads persisted to the result store.",
		}),
		SocialsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outreach_socials_found_total",
			Help: "Recorded leads carrying at least one social profile link.",
		}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_step_failures_total",
			Help: "Enrichment step failures, labeled by pipeline node and failure kind.",
		}, []string{"node", "kind"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outreach_llm_call_duration_seconds",
			Help:    "Duration of LLM calls in seconds, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		LLMErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_llm_errors_total",
			Help: "LLM calls that failed after retries.",
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.SitesScanned, m.LeadsQualified, m.LeadsRecorded, m.SocialsFound,
		m.StepFailures, m.LLMDuration, m.LLMErrors,
	)
	if breakers != nil {
		m.registry.MustRegister(&breakerCollector{breakers: breakers})
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SiteScanned implements campaign.Observer.
func (m *Metrics) SiteScanned() { m.SitesScanned.Inc() }

// LeadQualified implements campaign.Observer.
func (m *Metrics) LeadQualified() { m.LeadsQualified.Inc() }

// LeadRecorded implements campaign.Observer.
func (m *Metrics) LeadRecorded(rec model.LeadRecord) {
	m.LeadsRecorded.Inc()
	if rec.HasSocials() {
		m.SocialsFound.Inc()
	}
}

// StepFailed implements campaign.Observer.
func (m *Metrics) StepFailed(node model.Node, kind enrich.FailureKind) {
	m.StepFailures.WithLabelValues(string(node), kind.String()).Inc()
}

// ObserveLLM matches llm.Observer.
func (m *Metrics) ObserveLLM(stage string, elapsed time.Duration, err error) {
	if stage == "" {
		stage = "unknown"
	}
	m.LLMDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		m.LLMErrors.WithLabelValues(stage).Inc()
	}
}

var breakerStateDesc = prometheus.NewDesc(
	"outreach_breaker_state",
	"Circuit breaker state per backend: 0 closed, 1 open, 2 half-open.",
	[]string{"breaker"}, nil,
)

// breakerCollector reads breaker states at scrape time.
type breakerCollector struct {
	breakers *resilience.Breakers
}

func (c *breakerCollector) Describe(ch chan<- *prometheus.Desc) { ch <- breakerStateDesc }

func (c *breakerCollector) Collect(ch chan<- prometheus.Metric) {
	for name, state := range c.breakers.States() {
		ch <- prometheus.MustNewConstMetric(breakerStateDesc, prometheus.GaugeValue, float64(state), name)
	}
}
