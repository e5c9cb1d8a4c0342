package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"reliefctl/internal/config"
	"reliefctl/internal/session"
)

// Manager counts session outcomes and writes them as a Prometheus textfile.
// A nil *Manager is valid and does nothing.
type Manager struct {
	path string
	reg  *prometheus.Registry

	regionLoads  *prometheus.CounterVec
	regionsKnown prometheus.Gauge
	predictions  *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	rowsInserted prometheus.Counter
	duration     *prometheus.HistogramVec
}

// New returns nil unless the textfile exporter is enabled.
func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	return NewAt(cfg.Metrics.PrometheusTextfile.Path)
}

// NewAt builds a manager that writes to path.
func NewAt(path string) *Manager {
	m := &Manager{
		path: path,
		reg:  prometheus.NewRegistry(),
		regionLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefctl_region_loads_total",
			Help: "Region list loads by outcome.",
		}, []string{"outcome"}),
		regionsKnown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reliefctl_regions_loaded",
			Help: "Regions in the current snapshot.",
		}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefctl_predictions_total",
			Help: "Resolved predict calls by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reliefctl_uploads_total",
			Help: "Upload attempts by outcome.",
		}, []string{"outcome"}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reliefctl_rows_inserted_total",
			Help: "Rows the service reported as ingested.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reliefctl_request_duration_seconds",
			Help:    "Round trip of relief service calls.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
	}
	m.reg.MustRegister(m.regionLoads, m.regionsKnown, m.predictions, m.uploads, m.rowsInserted, m.duration)
	return m
}

// Observe implements session.Observer. Outcomes are read from the reduced
// state, so a payload the session rejects counts as failed even when the
// transport call succeeded.
func (m *Manager) Observe(n session.Notice) {
	if m == nil {
		return
	}
	switch ev := n.Event.(type) {
	case session.RegionsLoaded:
		m.regionLoads.WithLabelValues(regionsOutcome(ev, n.State)).Inc()
		m.regionsKnown.Set(float64(len(n.State.Regions)))
		m.duration.WithLabelValues("regions").Observe(ev.Elapsed.Seconds())
	case session.PredictResolved:
		m.predictions.WithLabelValues(predictOutcome(n)).Inc()
		m.duration.WithLabelValues("predict").Observe(ev.Elapsed.Seconds())
	case session.UploadRejected:
		m.uploads.WithLabelValues("rejected").Inc()
	case session.UploadResolved:
		out := uploadOutcome(n)
		m.uploads.WithLabelValues(out).Inc()
		m.duration.WithLabelValues("upload").Observe(ev.Elapsed.Seconds())
		if out == "ok" {
			m.rowsInserted.Add(float64(n.State.Upload.Inserted))
		}
	}
}

func regionsOutcome(ev session.RegionsLoaded, st session.State) string {
	switch {
	case ev.Err != nil:
		return "failed"
	case len(ev.Regions) > 0 && len(st.Regions) == 0:
		// Snapshot refused by the session, e.g. a negative population.
		return "rejected"
	default:
		return "ok"
	}
}

func predictOutcome(n session.Notice) string {
	if n.Discarded {
		return "discarded"
	}
	switch n.State.Prediction.Kind {
	case session.PredictionFailed:
		return "failed"
	case session.PredictionNone:
		return "empty"
	default:
		return "ok"
	}
}

func uploadOutcome(n session.Notice) string {
	if n.Discarded {
		return "discarded"
	}
	if n.State.Upload.Kind == session.UploadResolvedOK {
		return "ok"
	}
	return "failed"
}

// Write atomically replaces the textfile.
func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(m.path, m.reg)
}
