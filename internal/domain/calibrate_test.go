package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConstant = 3.0

// warmingSeries rises 0.02 K/yr, so its anomaly integral from 2012 is
// 0.01 * (y - 2012)^2.
func warmingSeries() TemperatureSeries {
	return seriesFrom(2006, 2100, func(y float64) float64 { return 285 + 0.02*(y-2012) })
}

func anomalyIntegral(y float64) float64 {
	d := y - 2012
	return 0.01 * d * d
}

// observedSeaLevels is consistent with warmingSeries and testConstant.
func observedSeaLevels() SeaLevelSeries {
	s := make(SeaLevelSeries)
	for y := 2006; y <= 2018; y++ {
		s[y] = testConstant * anomalyIntegral(float64(y))
	}
	return s
}

func TestCalibrate_RecoversConstant(t *testing.T) {
	c, err := Calibrate(warmingSeries(), observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)

	assert.InDelta(t, testConstant, c.Constant, 1e-6)
	assert.Equal(t, PolynomialDegree, c.Model.Degree())
}

func TestCalibrate_Deterministic(t *testing.T) {
	a, err := Calibrate(warmingSeries(), observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)
	b, err := Calibrate(warmingSeries(), observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)

	assert.Equal(t, a.Constant, b.Constant)
}

func TestCalibrate_InsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		observed SeaLevelSeries
	}{
		{"no observations", SeaLevelSeries{}},
		{"single observation", SeaLevelSeries{2010: 1.2}},
		{"observations outside temperature span", SeaLevelSeries{1990: 1, 1991: 2, 1992: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calibrate(warmingSeries(), tt.observed, DefaultIntegrator())
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

// Observed years without a temperature value sit off the fitted line and
// must not enter the regression.
func TestCalibrate_UsesOnlySharedYears(t *testing.T) {
	series := make(TemperatureSeries)
	for _, y := range []int{2006, 2010, 2014, 2018} {
		series[y] = 285 + 0.02*float64(y-2012)
	}
	observed := make(SeaLevelSeries)
	for y := 2006; y <= 2018; y++ {
		observed[y] = testConstant * anomalyIntegral(float64(y))
		if _, ok := series[y]; !ok {
			observed[y] += 5
		}
	}

	c, err := Calibrate(series, observed, DefaultIntegrator())
	require.NoError(t, err)
	assert.InDelta(t, testConstant, c.Constant, 1e-6)
}

func TestCalibrate_SparseSeriesNeedsTwoSharedYears(t *testing.T) {
	series := TemperatureSeries{2006: 285, 2010: 285.1, 2014: 285.2}
	observed := SeaLevelSeries{2007: 0.1, 2008: 0.2, 2010: 0.3}

	_, err := Calibrate(series, observed, DefaultIntegrator())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

// A flat series carries no anomaly signal; its integrals are rounding noise
// and the fitted constant is not meaningful.
func TestCalibrate_FlatSeriesHasNoSignal(t *testing.T) {
	flat := seriesFrom(2006, 2100, func(float64) float64 { return 285 })

	c, err := Calibrate(flat, observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)
	for _, y := range observedSeaLevels().Years() {
		assert.InDelta(t, 0, c.Integrator.Integrate(c.Model, float64(y)), 1e-6)
	}
}

func TestCalibrate_EmptySeries(t *testing.T) {
	_, err := Calibrate(TemperatureSeries{}, observedSeaLevels(), DefaultIntegrator())
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestCalibration_PredictMany(t *testing.T) {
	c, err := Calibrate(warmingSeries(), observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)

	table := c.PredictMany(DefaultDecades)
	require.Len(t, table, len(DefaultDecades))
	for i, p := range table {
		assert.Equal(t, DefaultDecades[i], p.Year)
		assert.InDelta(t, testConstant*anomalyIntegral(float64(p.Year)), p.SeaLevel, 1e-6)
	}
	assert.InDelta(t, 232.32, table[len(table)-1].SeaLevel, 1e-6)
}

func TestPredict_MatchesCalibration(t *testing.T) {
	c, err := Calibrate(warmingSeries(), observedSeaLevels(), DefaultIntegrator())
	require.NoError(t, err)

	got, err := Predict(warmingSeries(), observedSeaLevels(), DefaultIntegrator(), 2075)
	require.NoError(t, err)
	assert.Equal(t, c.Predict(2075), got)

	_, err = Predict(warmingSeries(), SeaLevelSeries{}, DefaultIntegrator(), 2075)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
