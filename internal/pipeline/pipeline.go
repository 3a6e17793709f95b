package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/couchcryptid/sea-level-risk/internal/observability"
)

// DatasetSource provides the climate series for a run.
type DatasetSource interface {
	Load(ctx context.Context) (*domain.ClimateData, error)
}

// AltitudeSource resolves altitude samples for the grid midpoints. Sources
// may skip points they cannot cover, and file-backed sources may ignore the
// points entirely.
type AltitudeSource interface {
	Altitudes(ctx context.Context, points []domain.GridPoint) ([]domain.AltitudeSample, error)
}

// ReportLoader publishes a finished report to one destination.
type ReportLoader interface {
	Name() string
	LoadReport(ctx context.Context, report *domain.FloodReport) error
}

// Settings fixes the geometry and model parameters of a run.
type Settings struct {
	Region           domain.Region
	Rows             int
	Cols             int
	Decades          []int
	Integrator       domain.Integrator
	StrictBoundaries bool
	SinkMaxAttempts  int
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the load-assess-publish run.
type Pipeline struct {
	datasets  DatasetSource
	altitudes AltitudeSource
	loaders   []ReportLoader
	settings  Settings
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	latest    atomic.Pointer[domain.FloodReport]
}

// New creates a Pipeline with the given stages and observability.
func New(d DatasetSource, a AltitudeSource, loaders []ReportLoader, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if settings.SinkMaxAttempts < 1 {
		settings.SinkMaxAttempts = 1
	}
	return &Pipeline{
		datasets:  d,
		altitudes: a,
		loaders:   loaders,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has produced a report, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no flood report has been produced yet")
	}
	return nil
}

// Latest returns the most recent report, or nil before the first run.
func (p *Pipeline) Latest() *domain.FloodReport {
	return p.latest.Load()
}

// Run performs one assessment and publishes the result to every loader.
// The report becomes visible through Latest as soon as it is assessed, even
// if a loader later fails.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.logger.Info("pipeline started",
		"rows", p.settings.Rows,
		"cols", p.settings.Cols,
		"decades", len(p.settings.Decades),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	report, err := p.assess(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}
	p.latest.Store(report)
	p.ready.Store(true)
	p.metrics.RecordsProduced.Add(float64(len(report.Records)))
	p.metrics.SamplesAssessed.Add(float64(report.SamplesAssessed))

	if err := p.publish(ctx, report); err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("pipeline finished",
		"records", len(report.Records),
		"points_at_risk", report.PointsAtRisk,
		"samples", report.SamplesAssessed,
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) assess(ctx context.Context) (*domain.FloodReport, error) {
	region := p.settings.Region
	grid, err := domain.BuildGrid(region, p.settings.Rows, p.settings.Cols)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}

	var classifierOpts []domain.ClassifierOption
	if p.settings.StrictBoundaries {
		classifierOpts = append(classifierOpts, domain.WithStrictBoundaries())
	}
	classifier, err := domain.NewQuadrantClassifier(grid, classifierOpts...)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	data, err := p.datasets.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	samples, err := p.altitudes.Altitudes(ctx, grid.Midpoints())
	if err != nil {
		return nil, fmt.Errorf("sample altitudes: %w", err)
	}
	samples = p.withinRegion(samples)

	opts := []domain.EngineOption{
		domain.WithIntegrator(p.settings.Integrator),
		domain.WithLogger(p.logger),
		domain.WithCalibrationObserver(p.metrics.ObserveCalibration),
	}
	if len(p.settings.Decades) > 0 {
		opts = append(opts, domain.WithDecades(p.settings.Decades))
	}
	engine := domain.NewFloodRiskEngine(classifier, data.Temperatures, data.SeaLevels, opts...)

	cache := domain.NewPredictionCache()
	if err := engine.Prewarm(ctx, cache); err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	report, err := engine.Report(ctx, cache, region, samples)
	if err != nil {
		return nil, fmt.Errorf("assess: %w", err)
	}
	return report, nil
}

// withinRegion drops samples outside the study region, which only file-backed
// sources can produce.
func (p *Pipeline) withinRegion(samples []domain.AltitudeSample) []domain.AltitudeSample {
	kept := samples[:0:0]
	for _, s := range samples {
		if !p.settings.Region.Contains(s.Lat, s.Lon) {
			p.logger.Warn("sample outside region, skipping", "lat", s.Lat, "lon", s.Lon)
			p.metrics.SamplesSkipped.WithLabelValues("outside_region").Inc()
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// publish hands the report to every loader, retrying each with exponential
// backoff. Loader failures are joined so one bad sink does not hide another.
func (p *Pipeline) publish(ctx context.Context, report *domain.FloodReport) error {
	var errs []error
	for _, l := range p.loaders {
		if err := p.loadWithRetry(ctx, l, report); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", l.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) loadWithRetry(ctx context.Context, l ReportLoader, report *domain.FloodReport) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := l.LoadReport(ctx, report)
		if err == nil {
			p.logger.Debug("report published", "sink", l.Name(), "attempt", attempt)
			return nil
		}
		p.metrics.SinkErrors.WithLabelValues(l.Name()).Inc()
		p.logger.Error("load report failed", "sink", l.Name(), "attempt", attempt, "error", err)

		if attempt >= p.settings.SinkMaxAttempts {
			return err
		}
		if !sleepWithContext(ctx, backoff) {
			return errors.Join(err, ctx.Err())
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
