package pipeline_test

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
)

// warmingData returns four identical series warming 0.02 K/yr from 2006 to
// 2100, with sea levels observed 2006..2018 proportional to the integrated
// anomaly. Every projection from 2020 on is strictly positive.
func warmingData() *domain.ClimateData {
	temps := make(domain.TemperatureSeries)
	for y := 2006; y <= 2100; y++ {
		temps[y] = 288 + 0.02*float64(y-2012)
	}
	sea := make(domain.SeaLevelSeries)
	for y := 2006; y <= 2018; y++ {
		d := float64(y - 2012)
		sea[y] = 3 * 0.01 * d * d
	}
	return &domain.ClimateData{
		Temperatures: domain.QuadrantSeries{temps, temps, temps, temps},
		SeaLevels:    sea,
	}
}

// --- mocks ---

type stubDatasets struct {
	data *domain.ClimateData
	err  error
}

func (s *stubDatasets) Load(ctx context.Context) (*domain.ClimateData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data, s.err
}

// altitudeFunc assigns an altitude to every requested point.
type altitudeFunc func(lat, lon float64) float64

func (f altitudeFunc) Altitudes(_ context.Context, points []domain.GridPoint) ([]domain.AltitudeSample, error) {
	samples := make([]domain.AltitudeSample, len(points))
	for i, p := range points {
		samples[i] = domain.AltitudeSample{Lat: p.Lat, Lon: p.Lon, Altitude: f(p.Lat, p.Lon)}
	}
	return samples, nil
}

type fixedAltitudes []domain.AltitudeSample

func (f fixedAltitudes) Altitudes(context.Context, []domain.GridPoint) ([]domain.AltitudeSample, error) {
	return f, nil
}

type recordingLoader struct {
	name     string
	failures int // number of initial calls that fail

	mu      sync.Mutex
	calls   int
	reports []*domain.FloodReport
}

func (l *recordingLoader) Name() string { return l.name }

func (l *recordingLoader) LoadReport(_ context.Context, report *domain.FloodReport) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls <= l.failures {
		return errors.New("sink unavailable")
	}
	l.reports = append(l.reports, report)
	return nil
}

// fakeLookup answers through altFor and tracks peak concurrency.
type fakeLookup struct {
	mu      sync.Mutex
	calls   int
	altFor  func(lat, lon float64) (float64, bool, error)
	inUse   int
	maxSeen int
}

func (f *fakeLookup) Elevation(ctx context.Context, lat, lon float64) (float64, bool, error) {
	f.mu.Lock()
	f.calls++
	f.inUse++
	if f.inUse > f.maxSeen {
		f.maxSeen = f.inUse
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inUse--
		f.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	return f.altFor(lat, lon)
}
