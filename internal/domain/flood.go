package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultDecades are the projection years used when none are configured.
var DefaultDecades = []int{2020, 2030, 2040, 2050, 2060, 2070, 2080, 2090, 2100}

// AltitudeSample is a measured land altitude at one location.
type AltitudeSample struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude float64 `json:"altitude"`
}

// FloodRecord marks a location whose altitude is at or below the projected
// sea level in Year. Depth is sea level minus altitude and is never negative.
type FloodRecord struct {
	Year  int     `json:"year"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Depth float64 `json:"depth"`
}

// FloodReport is the result of one assessment run.
type FloodReport struct {
	GeneratedAt     time.Time     `json:"generated_at"`
	Region          Region        `json:"region"`
	Decades         []int         `json:"decades"`
	SamplesAssessed int           `json:"samples_assessed"`
	PointsAtRisk    int           `json:"points_at_risk"`
	Records         []FloodRecord `json:"records"`
}

// FloodRiskEngine compares altitude samples against per-quadrant sea-level
// projections.
type FloodRiskEngine struct {
	classifier *QuadrantClassifier
	series     QuadrantSeries
	observed   SeaLevelSeries
	integrator Integrator
	decades    []int
	logger     *slog.Logger
	observe    func(Quadrant, time.Duration)
}

// EngineOption configures a FloodRiskEngine.
type EngineOption func(*FloodRiskEngine)

// WithDecades overrides the projection years. They are sorted ascending.
func WithDecades(decades []int) EngineOption {
	return func(e *FloodRiskEngine) {
		e.decades = slices.Clone(decades)
		slices.Sort(e.decades)
	}
}

// WithIntegrator overrides the default 2012 / 100-step integrator.
func WithIntegrator(in Integrator) EngineOption {
	return func(e *FloodRiskEngine) { e.integrator = in }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *FloodRiskEngine) { e.logger = l }
}

// WithCalibrationObserver registers a callback invoked after each quadrant is calibrated.
func WithCalibrationObserver(fn func(Quadrant, time.Duration)) EngineOption {
	return func(e *FloodRiskEngine) { e.observe = fn }
}

// NewFloodRiskEngine creates an engine for the given quadrant series and
// historical sea-level observations.
func NewFloodRiskEngine(classifier *QuadrantClassifier, series QuadrantSeries, observed SeaLevelSeries, opts ...EngineOption) *FloodRiskEngine {
	e := &FloodRiskEngine{
		classifier: classifier,
		series:     series,
		observed:   observed,
		integrator: DefaultIntegrator(),
		decades:    DefaultDecades,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Decades returns the projection years.
func (e *FloodRiskEngine) Decades() []int { return e.decades }

// Table returns the prediction table for q, computing and caching it on first use.
func (e *FloodRiskEngine) Table(cache *PredictionCache, q Quadrant) (PredictionTable, error) {
	return cache.GetOrCompute(q, func() (PredictionTable, error) {
		start := time.Now()
		cal, err := Calibrate(e.series[q], e.observed, e.integrator)
		if err != nil {
			return nil, fmt.Errorf("quadrant %s: %w", q, err)
		}
		if e.observe != nil {
			e.observe(q, time.Since(start))
		}
		e.logger.Debug("quadrant calibrated", "quadrant", q.String(), "constant", cal.Constant)
		table := cal.PredictMany(e.decades)
		warnNonFinite(e.logger, q, cal.Constant, table)
		return table, nil
	})
}

// warnNonFinite names projections that JSON encoders will reject downstream.
func warnNonFinite(logger *slog.Logger, q Quadrant, constant float64, table PredictionTable) {
	for _, p := range table {
		if math.IsNaN(p.SeaLevel) || math.IsInf(p.SeaLevel, 0) {
			logger.Warn("non-finite sea-level projection",
				"quadrant", q.String(),
				"year", p.Year,
				"sea_level", p.SeaLevel,
				"constant", constant,
			)
		}
	}
}

// Prewarm computes all four quadrant tables concurrently.
func (e *FloodRiskEngine) Prewarm(ctx context.Context, cache *PredictionCache) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range Quadrants {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := e.Table(cache, q)
			return err
		})
	}
	return g.Wait()
}

// Assess returns a FloodRecord for every sample and decade where the
// projected sea level meets or exceeds the altitude. Records follow sample
// order, and decades ascend within a sample.
func (e *FloodRiskEngine) Assess(ctx context.Context, cache *PredictionCache, samples []AltitudeSample) ([]FloodRecord, error) {
	records := make([]FloodRecord, 0)
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := e.classifier.Classify(s.Lat, s.Lon)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		table, err := e.Table(cache, q)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		for _, p := range table {
			depth := p.SeaLevel - s.Altitude
			if depth >= 0 {
				records = append(records, FloodRecord{Year: p.Year, Lat: s.Lat, Lon: s.Lon, Depth: depth})
			}
		}
	}
	return records, nil
}

// Report runs Assess and summarises the result.
func (e *FloodRiskEngine) Report(ctx context.Context, cache *PredictionCache, region Region, samples []AltitudeSample) (*FloodReport, error) {
	records, err := e.Assess(ctx, cache, samples)
	if err != nil {
		return nil, err
	}
	return &FloodReport{
		GeneratedAt:     clock.Now().UTC(),
		Region:          region,
		Decades:         e.decades,
		SamplesAssessed: len(samples),
		PointsAtRisk:    countPoints(records),
		Records:         records,
	}, nil
}

func countPoints(records []FloodRecord) int {
	type key struct{ lat, lon float64 }
	seen := make(map[key]struct{})
	for _, r := range records {
		seen[key{r.Lat, r.Lon}] = struct{}{}
	}
	return len(seen)
}
