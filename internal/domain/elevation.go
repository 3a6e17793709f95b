package domain

import "context"

// ElevationLookup resolves the land altitude at a coordinate.
type ElevationLookup interface {
	// Elevation returns the altitude in metres. ok is false when the point is
	// not covered by the provider (open water, outside the landmass); such
	// points must be excluded rather than treated as altitude zero.
	Elevation(ctx context.Context, lat, lon float64) (altitude float64, ok bool, err error)
}
