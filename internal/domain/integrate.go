package domain

const (
	// DefaultReferenceYear anchors both the anomaly baseline and the lower
	// integration bound.
	DefaultReferenceYear = 2012

	// DefaultSubdivisions is the number of midpoint-rule subintervals.
	DefaultSubdivisions = 100
)

// Integrator integrates a temperature anomaly T(y) - T(ReferenceYear) from
// ReferenceYear to a target year with a midpoint Riemann sum.
type Integrator struct {
	ReferenceYear float64
	Subdivisions  int
}

// DefaultIntegrator returns an Integrator anchored at 2012 with 100 subintervals.
func DefaultIntegrator() Integrator {
	return Integrator{ReferenceYear: DefaultReferenceYear, Subdivisions: DefaultSubdivisions}
}

// Integrate returns the anomaly integral of c over [ReferenceYear, target].
// A target before ReferenceYear gives a negative step; the sign is kept.
func (in Integrator) Integrate(c Curve, target float64) float64 {
	n := in.Subdivisions
	if n <= 0 {
		n = DefaultSubdivisions
	}
	ref := in.ReferenceYear
	dx := (target - ref) / float64(n)
	base := c.At(ref)

	var sum float64
	for k := 0; k < n; k++ {
		y := ref + dx/2 + float64(k)*dx
		sum += c.At(y) - base
	}
	return dx * sum
}
