package geojson

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *domain.FloodReport {
	return &domain.FloodReport{
		GeneratedAt:     time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC),
		Region:          domain.Region{LatMin: 40, LatMax: 84, LonMin: -146, LonMax: -50},
		Decades:         []int{2090, 2100},
		SamplesAssessed: 3,
		PointsAtRisk:    2,
		Records: []domain.FloodRecord{
			{Year: 2090, Lat: 45.5, Lon: -73.5, Depth: 0.25},
			{Year: 2100, Lat: 45.5, Lon: -73.5, Depth: 0.75},
			{Year: 2100, Lat: 49.5, Lon: -123.5, Depth: 0},
		},
	}
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(testReport())

	require.Len(t, fc.Features, 3)
	assert.Equal(t, orb.Point{-73.5, 45.5}, fc.Features[0].Geometry)
	assert.Equal(t, 2090, fc.Features[0].Properties[propYear])
	assert.InDelta(t, 0.75, fc.Features[1].Properties[propDepth], 0)
	assert.Equal(t, []float64{-146, 40, -50, 84}, []float64(fc.BBox))
}

func TestMarshal_EmptyReport(t *testing.T) {
	data, err := Marshal(&domain.FloodReport{Region: domain.Region{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Empty(t, doc["features"])
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	in := testReport()
	data, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, in.GeneratedAt, out.GeneratedAt)
	assert.Equal(t, in.Region, out.Region)
	assert.Equal(t, in.Decades, out.Decades)
	assert.Equal(t, in.Records, out.Records)
	assert.Equal(t, 2, out.PointsAtRisk)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"year":2020,"depth":1}}
	]}`))
	assert.ErrorIs(t, err, errNotPoint)

	_, err = Unmarshal([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"year":"2020"}}
	]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
	assert.Contains(t, err.Error(), "depth")
}

func TestFileSink_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	sink := FileSink{Path: path}
	assert.Equal(t, "file", sink.Name())

	require.NoError(t, sink.LoadReport(context.Background(), testReport()))

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, testReport(), got)
}

func TestFileSink_GeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.geojson")
	require.NoError(t, FileSink{Path: path}.LoadReport(context.Background(), testReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"FeatureCollection"`)

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Len(t, got.Records, 3)
}

func TestFileSink_ReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	sink := FileSink{Path: path}

	require.NoError(t, sink.LoadReport(context.Background(), testReport()))
	require.NoError(t, sink.LoadReport(context.Background(), &domain.FloodReport{Decades: []int{2020}}))

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Empty(t, got.Records)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileSink_MissingDirectory(t *testing.T) {
	err := FileSink{Path: filepath.Join(t.TempDir(), "nope", "report.json")}.LoadReport(context.Background(), testReport())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
