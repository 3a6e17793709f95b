package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrate_ZeroWidth(t *testing.T) {
	in := DefaultIntegrator()
	assert.Equal(t, 0.0, in.Integrate(curveFunc(func(y float64) float64 { return y * y }), DefaultReferenceYear))

	m, err := FitTemperature(seriesFrom(2006, 2100, func(y float64) float64 { return 280 + 0.03*(y-2006) }))
	require.NoError(t, err)
	assert.Equal(t, 0.0, in.Integrate(m, DefaultReferenceYear))
}

func TestIntegrate_LinearIsExact(t *testing.T) {
	in := DefaultIntegrator()
	identity := curveFunc(func(y float64) float64 { return y })

	// Integral of (y - 2012) over [2012, 2112] is 100^2 / 2.
	assert.InDelta(t, 5000.0, in.Integrate(identity, 2112), 1e-6)
	// Integrating backwards flips both dx and the anomaly sign.
	assert.InDelta(t, 5000.0, in.Integrate(identity, 1912), 1e-6)
}

func TestIntegrate_OddAnomalyFlipsSign(t *testing.T) {
	in := DefaultIntegrator()
	square := curveFunc(func(y float64) float64 {
		d := y - DefaultReferenceYear
		return d * d
	})

	forward := in.Integrate(square, DefaultReferenceYear+10)
	backward := in.Integrate(square, DefaultReferenceYear-10)

	// Midpoint rule: h^3/3 - h^3/(12 n^2).
	assert.InDelta(t, 333.325, forward, 1e-9)
	assert.InDelta(t, -forward, backward, 1e-9)
}

func TestIntegrate_NonPositiveSubdivisionsUseDefault(t *testing.T) {
	c := curveFunc(func(y float64) float64 { return (y - 2000) * (y - 2000) * (y - 2000) })
	want := DefaultIntegrator().Integrate(c, 2080)

	assert.Equal(t, want, Integrator{ReferenceYear: DefaultReferenceYear}.Integrate(c, 2080))
	assert.Equal(t, want, Integrator{ReferenceYear: DefaultReferenceYear, Subdivisions: -5}.Integrate(c, 2080))
}
