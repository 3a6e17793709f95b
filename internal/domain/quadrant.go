package domain

import "fmt"

// Quadrant is one of the four 2x2 subdivisions of a Region.
type Quadrant uint8

const (
	SouthWest Quadrant = iota
	SouthEast
	NorthWest
	NorthEast
)

// Quadrants lists every quadrant in index order.
var Quadrants = [...]Quadrant{SouthWest, SouthEast, NorthWest, NorthEast}

func (q Quadrant) String() string {
	switch q {
	case SouthWest:
		return "southwest"
	case SouthEast:
		return "southeast"
	case NorthWest:
		return "northwest"
	case NorthEast:
		return "northeast"
	default:
		return fmt.Sprintf("quadrant(%d)", uint8(q))
	}
}

// QuadrantSeries associates each quadrant with its regional temperature series.
type QuadrantSeries [len(Quadrants)]TemperatureSeries

// QuadrantClassifier assigns points to quadrants by comparing them against
// the region's midlines.
type QuadrantClassifier struct {
	midLat float64
	midLon float64
	strict bool
}

// ClassifierOption configures a QuadrantClassifier.
type ClassifierOption func(*QuadrantClassifier)

// WithStrictBoundaries makes Classify reject points exactly on a midline
// instead of assigning them to the lower-index quadrant.
func WithStrictBoundaries() ClassifierOption {
	return func(c *QuadrantClassifier) { c.strict = true }
}

// NewQuadrantClassifier derives midlines from a 2x2 grid over grid.Region, so
// the split does not depend on the resolution of grid itself.
func NewQuadrantClassifier(grid *Grid, opts ...ClassifierOption) (*QuadrantClassifier, error) {
	halves, err := BuildGrid(grid.Region, 2, 2)
	if err != nil {
		return nil, err
	}
	c := &QuadrantClassifier{
		midLat: halves.Lats[1],
		midLon: halves.Lons[1],
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Midlines returns the latitude and longitude that split the region.
func (c *QuadrantClassifier) Midlines() (lat, lon float64) { return c.midLat, c.midLon }

// Classify returns the quadrant containing (lat, lon). A point on a midline
// belongs to the south or west side unless the classifier is strict.
func (c *QuadrantClassifier) Classify(lat, lon float64) (Quadrant, error) {
	if c.strict && (lat == c.midLat || lon == c.midLon) {
		return 0, fmt.Errorf("%w: (%g, %g)", ErrClassificationAmbiguous, lat, lon)
	}
	var q Quadrant
	if lat > c.midLat {
		q += 2
	}
	if lon > c.midLon {
		q++
	}
	return q, nil
}
