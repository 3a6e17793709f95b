package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Region is a lat/lon bounding box under study.
type Region struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// NewRegion validates and returns a Region.
func NewRegion(latMin, latMax, lonMin, lonMax float64) (Region, error) {
	r := Region{LatMin: latMin, LatMax: latMax, LonMin: lonMin, LonMax: lonMax}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// Validate checks ordering and geographic range of the bounds.
func (r Region) Validate() error {
	if !(r.LatMin < r.LatMax) || !(r.LonMin < r.LonMax) {
		return fmt.Errorf("%w: bounds must be increasing: lat [%g, %g], lon [%g, %g]",
			ErrInvalidRegion, r.LatMin, r.LatMax, r.LonMin, r.LonMax)
	}
	if r.LatMin < -90 || r.LatMax > 90 {
		return fmt.Errorf("%w: latitude outside [-90, 90]", ErrInvalidRegion)
	}
	if r.LonMin < -180 || r.LonMax > 180 {
		return fmt.Errorf("%w: longitude outside [-180, 180]", ErrInvalidRegion)
	}
	return nil
}

// Bound returns the region as an orb.Bound (X = lon, Y = lat).
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.LonMin, r.LatMin},
		Max: orb.Point{r.LonMax, r.LatMax},
	}
}

// Contains reports whether the point lies inside the region, edges included.
func (r Region) Contains(lat, lon float64) bool {
	return r.Bound().Contains(orb.Point{lon, lat})
}

// Grid is a regular n x m subdivision of a Region. Lats holds n+1 boundary
// values and Lons holds m+1, both running from the region minimum to maximum.
type Grid struct {
	Region Region
	Lats   []float64
	Lons   []float64
}

// GridPoint is the centre of one grid cell.
type GridPoint struct {
	Lat  float64
	Lon  float64
	grid *Grid
}

// Point returns the midpoint as an orb.Point.
func (p GridPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// Grid returns the grid the point was derived from.
func (p GridPoint) Grid() *Grid { return p.grid }

// BuildGrid partitions region into n latitude bands and m longitude bands.
func BuildGrid(region Region, n, m int) (*Grid, error) {
	if n < 1 || m < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, n, m)
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}
	return &Grid{
		Region: region,
		Lats:   boundaries(region.LatMin, region.LatMax, n),
		Lons:   boundaries(region.LonMin, region.LonMax, m),
	}, nil
}

// Rows returns the number of latitude bands.
func (g *Grid) Rows() int { return len(g.Lats) - 1 }

// Cols returns the number of longitude bands.
func (g *Grid) Cols() int { return len(g.Lons) - 1 }

// Midpoints returns the centre of every cell, row by row: latitude bands
// from south to north, and within a band longitudes from west to east.
func (g *Grid) Midpoints() []GridPoint {
	points := make([]GridPoint, 0, g.Rows()*g.Cols())
	for i := 0; i < g.Rows(); i++ {
		lat := (g.Lats[i] + g.Lats[i+1]) / 2
		for j := 0; j < g.Cols(); j++ {
			lon := (g.Lons[j] + g.Lons[j+1]) / 2
			points = append(points, GridPoint{Lat: lat, Lon: lon, grid: g})
		}
	}
	return points
}

// boundaries returns count+1 evenly spaced values from lo to hi. The last
// value is pinned to hi so accumulated rounding never moves the outer edge.
func boundaries(lo, hi float64, count int) []float64 {
	step := (hi - lo) / float64(count)
	out := make([]float64, count+1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[count] = hi
	return out
}
