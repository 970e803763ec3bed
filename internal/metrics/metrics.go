// Package metrics exposes placeprep's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/placeprep/internal/assessment"
)

// Speech analysis outcomes.
const (
	SpeechAnalyzed = "analyzed"
	SpeechFallback = "fallback"
)

// Readiness cache results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	attemptsSubmitted *prometheus.CounterVec
	persistFailures   prometheus.Counter
	speechAnalyses    *prometheus.CounterVec
	readinessCache    *prometheus.CounterVec
}

// New registers the counters plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		attemptsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "placeprep_attempts_submitted_total",
			Help: "Assessment attempts submitted, by trigger.",
		}, []string{"trigger"}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "placeprep_attempt_persist_failures_total",
			Help: "Final attempt writes that failed.",
		}),
		speechAnalyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "placeprep_speech_analyses_total",
			Help: "Speech analyses, by outcome.",
		}, []string{"outcome"}),
		readinessCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "placeprep_readiness_cache_total",
			Help: "Readiness report cache lookups, by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSubmission counts sub by trigger, and counts a persist failure
// once its write finishes unsuccessfully. It fits assessment.Options.OnSubmit.
func (m *Metrics) ObserveSubmission(sub *assessment.Submission) {
	if m == nil || sub == nil {
		return
	}
	m.attemptsSubmitted.WithLabelValues(string(sub.Trigger)).Inc()
	go func() {
		<-sub.Done()
		if sub.Err() != nil {
			m.persistFailures.Inc()
		}
	}()
}

// PersistFailed counts a failed write outside the controller, such as a
// failed retry or an API-side completion.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// SubmittedVia counts a submission made outside a Controller.
func (m *Metrics) SubmittedVia(trigger assessment.Trigger) {
	if m == nil {
		return
	}
	m.attemptsSubmitted.WithLabelValues(string(trigger)).Inc()
}

// SpeechAnalysis counts one analysis.
func (m *Metrics) SpeechAnalysis(fallback bool) {
	if m == nil {
		return
	}
	outcome := SpeechAnalyzed
	if fallback {
		outcome = SpeechFallback
	}
	m.speechAnalyses.WithLabelValues(outcome).Inc()
}

// CacheResult counts one readiness cache lookup.
func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.readinessCache.WithLabelValues(result).Inc()
}
