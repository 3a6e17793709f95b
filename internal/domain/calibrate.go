package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Calibration holds the fitted temperature curve for one series together with
// the constant that scales its anomaly integral into sea-level change.
// Build it once per series and reuse it for every prediction year.
type Calibration struct {
	Model      *TemperatureModel
	Constant   float64
	Integrator Integrator
}

// Prediction is one projected sea level.
type Prediction struct {
	Year     int     `json:"year"`
	SeaLevel float64 `json:"sea_level"`
}

// PredictionTable is a year-ascending list of projections for one series.
type PredictionTable []Prediction

// Calibrate fits the series, integrates its anomaly for every year present
// in both series, and regresses the observations on those integrals. The
// slope is the calibration constant.
//
// A flat temperature series leaves integrals that are only rounding noise,
// and the slope fitted to them has no physical meaning. Callers feeding
// near-constant series should not trust the resulting projections.
func Calibrate(series TemperatureSeries, observed SeaLevelSeries, integrator Integrator) (*Calibration, error) {
	model, err := FitTemperature(series)
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}

	var xs, ys []float64
	for _, y := range observed.Years() {
		if _, ok := series[y]; !ok {
			continue
		}
		xs = append(xs, integrator.Integrate(model, float64(y)))
		ys = append(ys, observed[y])
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("calibrate: %w: %d shared years", ErrInsufficientData, len(xs))
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return &Calibration{Model: model, Constant: slope, Integrator: integrator}, nil
}

// Predict returns the projected sea-level change for year.
func (c *Calibration) Predict(year float64) float64 {
	return c.Constant * c.Integrator.Integrate(c.Model, year)
}

// PredictMany projects every year in years, preserving their order.
func (c *Calibration) PredictMany(years []int) PredictionTable {
	table := make(PredictionTable, len(years))
	for i, y := range years {
		table[i] = Prediction{Year: y, SeaLevel: c.Predict(float64(y))}
	}
	return table
}

// Predict calibrates series against observed and projects a single year.
// Prefer Calibrate + PredictMany when projecting more than one year.
func Predict(series TemperatureSeries, observed SeaLevelSeries, integrator Integrator, year float64) (float64, error) {
	c, err := Calibrate(series, observed, integrator)
	if err != nil {
		return 0, err
	}
	return c.Predict(year), nil
}
