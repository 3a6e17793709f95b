package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// curveFunc adapts a plain function to Curve.
type curveFunc func(float64) float64

func (f curveFunc) At(y float64) float64 { return f(y) }

func seriesFrom(first, last int, f func(y float64) float64) TemperatureSeries {
	s := make(TemperatureSeries, last-first+1)
	for y := first; y <= last; y++ {
		s[y] = f(float64(y))
	}
	return s
}

func TestFitTemperature_ReproducesLinearSeries(t *testing.T) {
	s := seriesFrom(2006, 2100, func(y float64) float64 { return y })

	m, err := FitTemperature(s)
	require.NoError(t, err)
	assert.Equal(t, PolynomialDegree, m.Degree())

	for y := range s {
		assert.InDelta(t, float64(y), m.At(float64(y)), 1e-6, "year %d", y)
	}
}

func TestFitTemperature_ReproducesQuadraticTrend(t *testing.T) {
	f := func(y float64) float64 {
		d := y - 2006
		return 285 + 0.01*d + 0.0002*d*d
	}
	m, err := FitTemperature(seriesFrom(2006, 2100, f))
	require.NoError(t, err)

	for _, y := range []float64{2006, 2012, 2050.5, 2100} {
		assert.InDelta(t, f(y), m.At(y), 1e-6, "year %v", y)
	}
}

func TestFitTemperature_ExtrapolatesWithoutError(t *testing.T) {
	m, err := FitTemperature(seriesFrom(2006, 2018, func(y float64) float64 { return 280 + 0.05*(y-2006) }))
	require.NoError(t, err)

	v := m.At(2100)
	assert.False(t, math.IsNaN(v))
	assert.InDelta(t, 280+0.05*94, v, 1e-3)
}

func TestFitTemperature_ShortSeriesLowersDegree(t *testing.T) {
	m, err := FitTemperature(TemperatureSeries{2006: 280, 2007: 281, 2008: 283})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Degree())
	assert.InDelta(t, 281.0, m.At(2007), 1e-9)

	single, err := FitTemperature(TemperatureSeries{2010: 290})
	require.NoError(t, err)
	assert.Equal(t, 0, single.Degree())
	assert.InDelta(t, 290.0, single.At(2050), 1e-9)
}

func TestFitTemperature_Empty(t *testing.T) {
	_, err := FitTemperature(TemperatureSeries{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestFitTemperature_Deterministic(t *testing.T) {
	s := seriesFrom(2006, 2100, func(y float64) float64 { return 285 + math.Sin(y/7) })
	a, err := FitTemperature(s)
	require.NoError(t, err)
	b, err := FitTemperature(s)
	require.NoError(t, err)

	for _, y := range []float64{2006, 2040.25, 2100, 2150} {
		assert.Equal(t, a.At(y), b.At(y))
	}
}

func TestSeries_YearsSorted(t *testing.T) {
	assert.Equal(t, []int{2006, 2007, 2010}, TemperatureSeries{2010: 1, 2006: 2, 2007: 3}.Years())
	assert.Equal(t, []int{2015, 2016}, SeaLevelSeries{2016: 1, 2015: 2}.Years())
}
