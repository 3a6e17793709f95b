package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/couchcryptid/sea-level-risk/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ElevationSampler implements AltitudeSource by querying an ElevationLookup
// for every grid midpoint with bounded concurrency.
type ElevationSampler struct {
	lookup      domain.ElevationLookup
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewElevationSampler creates a sampler issuing at most concurrency lookups at once.
func NewElevationSampler(lookup domain.ElevationLookup, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *ElevationSampler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ElevationSampler{
		lookup:      lookup,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Altitudes returns samples in midpoint order. Points the provider does not
// cover, and points whose lookup fails, are logged and skipped; only
// cancellation aborts the run.
func (s *ElevationSampler) Altitudes(ctx context.Context, points []domain.GridPoint) ([]domain.AltitudeSample, error) {
	slots := make([]*domain.AltitudeSample, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, pt := range points {
		g.Go(func() error {
			alt, ok, err := s.lookup.Elevation(gctx, pt.Lat, pt.Lon)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("elevation lookup failed, skipping point", "lat", pt.Lat, "lon", pt.Lon, "error", err)
				s.metrics.SamplesSkipped.WithLabelValues("lookup_error").Inc()
				return nil
			}
			if !ok {
				s.logger.Debug("no elevation coverage, skipping point", "lat", pt.Lat, "lon", pt.Lon)
				s.metrics.SamplesSkipped.WithLabelValues("absent").Inc()
				return nil
			}
			slots[i] = &domain.AltitudeSample{Lat: pt.Lat, Lon: pt.Lon, Altitude: alt}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := make([]domain.AltitudeSample, 0, len(points))
	for _, s := range slots {
		if s != nil {
			samples = append(samples, *s)
		}
	}
	return samples, nil
}
