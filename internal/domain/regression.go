package domain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PolynomialDegree is the degree of the year -> temperature fit. Six captures
// multi-decade non-monotonic trends over 15-95 yearly samples without the
// oscillation higher degrees introduce.
const PolynomialDegree = 6

// Curve is anything that can be evaluated at a (possibly fractional) year.
type Curve interface {
	At(year float64) float64
}

// TemperatureModel is a fitted polynomial in a normalised year coordinate
// u = (year - center) / scale, where the fitted span maps onto [-1, 1].
type TemperatureModel struct {
	coef   []float64 // ascending powers of u
	center float64
	scale  float64
}

// FitTemperature fits a least-squares polynomial of degree PolynomialDegree
// to the series. Series with fewer than PolynomialDegree+1 years are fitted
// with degree len-1.
func FitTemperature(series TemperatureSeries) (*TemperatureModel, error) {
	years := series.Years()
	if len(years) == 0 {
		return nil, ErrEmptySeries
	}
	degree := min(PolynomialDegree, len(years)-1)

	lo, hi := float64(years[0]), float64(years[len(years)-1])
	center := (lo + hi) / 2
	scale := (hi - lo) / 2
	if scale == 0 {
		scale = 1
	}

	a := mat.NewDense(len(years), degree+1, nil)
	b := mat.NewVecDense(len(years), nil)
	for i, y := range years {
		u := (float64(y) - center) / scale
		p := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, p)
			p *= u
		}
		b.SetVec(i, series[y])
	}

	var qr mat.QR
	qr.Factorize(a)
	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		// An ill-conditioned fit still yields coefficients; callers inspect the values.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("fit temperature: %w", err)
		}
	}

	coef := make([]float64, degree+1)
	for j := range coef {
		coef[j] = c.AtVec(j)
	}
	return &TemperatureModel{coef: coef, center: center, scale: scale}, nil
}

// Degree returns the degree actually fitted.
func (m *TemperatureModel) Degree() int { return len(m.coef) - 1 }

// At evaluates the fitted curve. Years outside the fitted span are extrapolated.
func (m *TemperatureModel) At(year float64) float64 {
	u := (year - m.center) / m.scale
	v := 0.0
	for j := len(m.coef) - 1; j >= 0; j-- {
		v = v*u + m.coef[j]
	}
	return v
}
