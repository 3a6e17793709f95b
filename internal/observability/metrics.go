package observability

import (
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sealevel"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// flood-risk pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RecordsProduced prometheus.Counter
	SamplesAssessed prometheus.Counter
	SamplesSkipped  *prometheus.CounterVec // labels: reason={absent,lookup_error,outside_region}
	PipelineRunning prometheus.Gauge

	RunDuration         prometheus.Histogram
	CalibrationDuration *prometheus.HistogramVec // labels: quadrant

	// Elevation lookup metrics.
	ElevationRequests *prometheus.CounterVec // labels: outcome={success,absent,error}
	ElevationCache    *prometheus.CounterVec // labels: result={hit,miss}
	ElevationDuration prometheus.Histogram

	SinkErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RecordsProduced,
		m.SamplesAssessed,
		m.SamplesSkipped,
		m.PipelineRunning,
		m.RunDuration,
		m.CalibrationDuration,
		m.ElevationRequests,
		m.ElevationCache,
		m.ElevationDuration,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Flood-risk assessment runs by outcome.",
		}, []string{"outcome"}),
		RecordsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flood_records_total",
			Help:      "Total flood records produced.",
		}),
		SamplesAssessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_assessed_total",
			Help:      "Altitude samples passed to the flood-risk engine.",
		}),
		SamplesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_skipped_total",
			Help:      "Grid points excluded before assessment, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an assessment run is in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-assess-publish run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		CalibrationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calibration_duration_seconds",
			Help:      "Time to fit, integrate and calibrate one quadrant series.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"quadrant"}),
		ElevationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_requests_total",
			Help:      "Elevation API requests by outcome.",
		}, []string{"outcome"}),
		ElevationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_cache_total",
			Help:      "Elevation cache lookups by result.",
		}, []string{"result"}),
		ElevationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "elevation_api_duration_seconds",
			Help:      "Elevation API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed attempts to publish flood records, by sink.",
		}, []string{"sink"}),
	}
}

// ObserveCalibration records how long one quadrant took to calibrate.
// It matches the signature of domain.WithCalibrationObserver.
func (m *Metrics) ObserveCalibration(q domain.Quadrant, d time.Duration) {
	m.CalibrationDuration.WithLabelValues(q.String()).Observe(d.Seconds())
}
