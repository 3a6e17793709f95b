// Package geojson renders flood reports as GeoJSON and persists reports to
// disk.
package geojson

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

const (
	propYear        = "year"
	propDepth       = "depth"
	memberGenerated = "generated_at"
	memberDecades   = "decades"
)

// FeatureCollection converts a report into Point features carrying year and
// depth properties. The collection's bbox is the study region.
func FeatureCollection(report *domain.FloodReport) *orbjson.FeatureCollection {
	fc := orbjson.NewFeatureCollection()
	fc.BBox = orbjson.NewBBox(report.Region.Bound())
	fc.ExtraMembers = orbjson.Properties{
		memberGenerated: report.GeneratedAt.Format(time.RFC3339),
		memberDecades:   report.Decades,
	}
	for _, r := range report.Records {
		f := orbjson.NewFeature(orb.Point{r.Lon, r.Lat})
		f.Properties[propYear] = r.Year
		f.Properties[propDepth] = r.Depth
		fc.Append(f)
	}
	return fc
}

// Marshal encodes a report as a GeoJSON FeatureCollection.
func Marshal(report *domain.FloodReport) ([]byte, error) {
	data, err := FeatureCollection(report).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return data, nil
}

// Unmarshal rebuilds a report from a collection written by Marshal. Sample
// counts are not part of the GeoJSON form and are left zero; PointsAtRisk is
// recomputed from the features.
func Unmarshal(data []byte) (*domain.FloodReport, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal geojson: %w", err)
	}

	report := &domain.FloodReport{Records: make([]domain.FloodRecord, 0, len(fc.Features))}
	if len(fc.BBox) == 4 {
		b := fc.BBox.Bound()
		report.Region = domain.Region{LatMin: b.Min.Lat(), LatMax: b.Max.Lat(), LonMin: b.Min.Lon(), LonMax: b.Max.Lon()}
	}
	if s, ok := fc.ExtraMembers[memberGenerated].(string); ok {
		if report.GeneratedAt, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("generated_at: %w", err)
		}
	}
	if decades, ok := fc.ExtraMembers[memberDecades].([]any); ok {
		for _, d := range decades {
			if v, ok := d.(float64); ok {
				report.Decades = append(report.Decades, int(v))
			}
		}
	}

	points := make(map[orb.Point]struct{})
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: %w", i, errNotPoint)
		}
		year, yerr := number(f.Properties, propYear)
		depth, derr := number(f.Properties, propDepth)
		if err := errors.Join(yerr, derr); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		report.Records = append(report.Records, domain.FloodRecord{Year: int(year), Lat: p.Lat(), Lon: p.Lon(), Depth: depth})
		points[p] = struct{}{}
	}
	report.PointsAtRisk = len(points)
	return report, nil
}

var errNotPoint = errors.New("geometry is not a point")

func number(props orbjson.Properties, key string) (float64, error) {
	switch v := props[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("missing property %q", key)
	default:
		return 0, fmt.Errorf("property %q is %T, not a number", key, v)
	}
}
