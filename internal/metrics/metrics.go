// Package metrics counts render and pick activity of a viewer session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	engineLabel = "engine"
	resultLabel = "result"
	reasonLabel = "reason"
)

// Metrics holds the session counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	cloudsRendered *prometheus.CounterVec
	cloudsSkipped  *prometheus.CounterVec
	pointsWritten  prometheus.Counter
	picks          *prometheus.CounterVec
	filesRemoved   prometheus.Counter
	renderSeconds  prometheus.Histogram
}

// New registers the counters on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		cloudsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pcv_clouds_rendered_total",
			Help: "Clouds written and handed to a rendering engine.",
		}, []string{engineLabel}),
		cloudsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pcv_clouds_skipped_total",
			Help: "Clouds skipped during a render pass.",
		}, []string{reasonLabel}),
		pointsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "pcv_points_written_total",
			Help: "Points serialised to PCD files.",
		}),
		picks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pcv_picks_total",
			Help: "Pick events by outcome.",
		}, []string{resultLabel}),
		filesRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "pcv_files_removed_total",
			Help: "Old PCD files removed by cleanup.",
		}),
		renderSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pcv_render_pass_seconds",
			Help:    "Duration of render preparation passes.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// CloudRendered counts a cloud of n points handed to engine.
func (m *Metrics) CloudRendered(engine string, n int) {
	if m == nil {
		return
	}
	m.cloudsRendered.With(prometheus.Labels{engineLabel: engine}).Inc()
	m.pointsWritten.Add(float64(n))
}

// CloudSkipped counts a cloud left out of a render pass.
func (m *Metrics) CloudSkipped(reason string) {
	if m == nil {
		return
	}
	m.cloudsSkipped.With(prometheus.Labels{reasonLabel: reason}).Inc()
}

// Pick counts a pick event.
func (m *Metrics) Pick(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.picks.With(prometheus.Labels{resultLabel: result}).Inc()
}

// FilesRemoved counts cleaned up files.
func (m *Metrics) FilesRemoved(n int) {
	if m == nil {
		return
	}
	m.filesRemoved.Add(float64(n))
}

// RenderPass records the duration of one render pass in seconds.
func (m *Metrics) RenderPass(seconds float64) {
	if m == nil {
		return
	}
	m.renderSeconds.Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
