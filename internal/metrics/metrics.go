// Package metrics exposes Prometheus instrumentation for certificate
// rendering and asset loading. All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks render counts/durations, asset loads and cache behaviour.
type Metrics struct {
	CertificatesRendered *prometheus.CounterVec
	RenderDuration       prometheus.Histogram
	AssetLoadAttempts    *prometheus.CounterVec
	AssetCacheLookups    *prometheus.CounterVec
	ExportDuration       prometheus.Histogram
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CertificatesRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certapp_certificates_rendered_total",
			Help: "Total number of certificates rendered, by mode (preview, batch, export) and result",
		}, []string{"mode", "result"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certapp_render_duration_seconds",
			Help:    "Duration of a single certificate composition",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		AssetLoadAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certapp_asset_load_attempts_total",
			Help: "Asset fetch+decode attempts, by result (ok, error)",
		}, []string{"result"}),
		AssetCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "certapp_asset_cache_lookups_total",
			Help: "Image cache lookups, by result (hit, miss)",
		}, []string{"result"}),
		ExportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "certapp_export_duration_seconds",
			Help:    "Duration of a full batch export",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveRender records one composition started at start.
func (m *Metrics) ObserveRender(mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CertificatesRendered.WithLabelValues(mode, result).Inc()
	m.RenderDuration.Observe(time.Since(start).Seconds())
}

// ObserveExport records a full export started at start.
func (m *Metrics) ObserveExport(start time.Time) {
	if m == nil {
		return
	}
	m.ExportDuration.Observe(time.Since(start).Seconds())
}

// IncAssetAttempt counts one load attempt.
func (m *Metrics) IncAssetAttempt(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.AssetLoadAttempts.WithLabelValues("error").Inc()
		return
	}
	m.AssetLoadAttempts.WithLabelValues("ok").Inc()
}

// IncCacheLookup counts a cache hit or miss.
func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.AssetCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.AssetCacheLookups.WithLabelValues("miss").Inc()
}
