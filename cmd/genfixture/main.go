// Command genfixture writes a synthetic dataset fixture, the matching
// altitude samples, and the flood report the pipeline is expected to produce
// from them. The report is computed with the real domain package under a
// fixed clock, so the output is reproducible.
//
// Usage:
//
//	go run ./cmd/genfixture -out-dir data -rows 10 -cols 10
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/adapter/dataset"
	"github.com/couchcryptid/sea-level-risk/internal/adapter/geojson"
	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/jonboulle/clockwork"
)

var generatedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// quadrantClimate describes one synthetic regional temperature series.
type quadrantClimate struct {
	base    float64 // K in 2006
	warming float64 // K per year
	accel   float64 // K per year squared
}

var climates = [len(domain.Quadrants)]quadrantClimate{
	domain.SouthWest: {base: 284.0, warming: 0.020, accel: 0.00010},
	domain.SouthEast: {base: 283.5, warming: 0.024, accel: 0.00012},
	domain.NorthWest: {base: 268.0, warming: 0.035, accel: 0.00020},
	domain.NorthEast: {base: 267.0, warming: 0.032, accel: 0.00018},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data", "directory for the generated files")
	rows := flag.Int("rows", 10, "grid rows")
	cols := flag.Int("cols", 10, "grid columns")
	latMin := flag.Float64("lat-min", 40, "region southern bound")
	latMax := flag.Float64("lat-max", 84, "region northern bound")
	lonMin := flag.Float64("lon-min", -146, "region western bound")
	lonMax := flag.Float64("lon-max", -50, "region eastern bound")
	flag.Parse()

	region, err := domain.NewRegion(*latMin, *latMax, *lonMin, *lonMax)
	if err != nil {
		return err
	}
	grid, err := domain.BuildGrid(region, *rows, *cols)
	if err != nil {
		return err
	}

	data := syntheticClimate()
	samples := syntheticAltitudes(grid)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeFile(filepath.Join(*outDir, "datasets.json"), func(f *os.File) error {
		return dataset.WriteJSON(f, data)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(*outDir, "altitudes.json"), func(f *os.File) error {
		return dataset.WriteAltitudes(f, samples)
	}); err != nil {
		return err
	}

	report, err := expectedReport(grid, data, samples)
	if err != nil {
		return fmt.Errorf("compute expected report: %w", err)
	}
	for _, name := range []string{"expected_report.json", "expected_report.geojson"} {
		path := filepath.Join(*outDir, name)
		if err := (geojson.FileSink{Path: path}).LoadReport(context.Background(), report); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	log.Printf("samples: %d, points at risk: %d, records: %d",
		report.SamplesAssessed, report.PointsAtRisk, len(report.Records))
	return nil
}

func syntheticClimate() *domain.ClimateData {
	data := &domain.ClimateData{SeaLevels: make(domain.SeaLevelSeries)}
	for _, q := range domain.Quadrants {
		c := climates[q]
		series := make(domain.TemperatureSeries)
		for y := 2006; y <= 2100; y++ {
			t := float64(y - 2006)
			series[y] = c.base + c.warming*t + c.accel*t*t
		}
		data.Temperatures[q] = series
	}
	// Observed global mean sea-level change (m) relative to 2012, roughly
	// 3.3 mm/yr and accelerating.
	for y := 2006; y <= 2018; y++ {
		t := float64(y - 2012)
		data.SeaLevels[y] = 0.0033*t + 0.00004*t*math.Abs(t)
	}
	return data
}

// syntheticAltitudes gives a coastal profile: low ground near the southern
// and eastern edges, rising inland, with a few points below sea level.
func syntheticAltitudes(grid *domain.Grid) []domain.AltitudeSample {
	points := grid.Midpoints()
	samples := make([]domain.AltitudeSample, 0, len(points))
	r := grid.Region
	for _, p := range points {
		north := (p.Lat - r.LatMin) / (r.LatMax - r.LatMin)
		west := (r.LonMax - p.Lon) / (r.LonMax - r.LonMin)
		alt := 400*north*west - 1.5 + 0.5*math.Sin(p.Lat)*math.Cos(p.Lon)
		samples = append(samples, domain.AltitudeSample{
			Lat:      p.Lat,
			Lon:      p.Lon,
			Altitude: math.Round(alt*100) / 100,
		})
	}
	return samples
}

func expectedReport(grid *domain.Grid, data *domain.ClimateData, samples []domain.AltitudeSample) (*domain.FloodReport, error) {
	// Set a fixed clock for a reproducible GeneratedAt.
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	classifier, err := domain.NewQuadrantClassifier(grid)
	if err != nil {
		return nil, err
	}
	engine := domain.NewFloodRiskEngine(classifier, data.Temperatures, data.SeaLevels)
	return engine.Report(context.Background(), domain.NewPredictionCache(), grid.Region, samples)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s", path)
	return f.Close()
}
