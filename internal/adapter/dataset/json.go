// Package dataset loads climate series and altitude samples from JSON
// fixtures and NetCDF model output.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
)

// jsonDatasets is the on-disk layout. Temperatures are listed in quadrant
// index order: southwest, southeast, northwest, northeast.
type jsonDatasets struct {
	Temperatures []domain.TemperatureSeries `json:"temperatures"`
	SeaLevels    domain.SeaLevelSeries      `json:"sea_levels"`
}

// JSONSource reads ClimateData from a JSON file.
type JSONSource struct {
	Path string
}

// Load reads and decodes the file.
func (s JSONSource) Load(ctx context.Context) (*domain.ClimateData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	data, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return data, nil
}

// ReadJSON decodes ClimateData. Exactly one temperature series per quadrant
// is required.
func ReadJSON(r io.Reader) (*domain.ClimateData, error) {
	var raw jsonDatasets
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if len(raw.Temperatures) != len(domain.Quadrants) {
		return nil, fmt.Errorf("%w: want %d temperature series, got %d",
			domain.ErrMismatchedSeries, len(domain.Quadrants), len(raw.Temperatures))
	}

	data := &domain.ClimateData{SeaLevels: raw.SeaLevels}
	copy(data.Temperatures[:], raw.Temperatures)
	return data, nil
}

// WriteJSON encodes data in the layout ReadJSON accepts.
func WriteJSON(w io.Writer, data *domain.ClimateData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDatasets{
		Temperatures: data.Temperatures[:],
		SeaLevels:    data.SeaLevels,
	})
}

// AltitudeFile serves a fixed list of altitude samples from a JSON array of
// {"lat", "lon", "altitude"} objects. The grid points are ignored; the file
// is the sample set.
type AltitudeFile struct {
	Path string
}

// Altitudes reads the samples in file order.
func (a AltitudeFile) Altitudes(ctx context.Context, _ []domain.GridPoint) ([]domain.AltitudeSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open altitudes: %w", err)
	}
	defer f.Close()

	var samples []domain.AltitudeSample
	if err := json.NewDecoder(f).Decode(&samples); err != nil {
		return nil, fmt.Errorf("decode altitudes %s: %w", a.Path, err)
	}
	return samples, nil
}

// WriteAltitudes encodes samples in the layout AltitudeFile reads.
func WriteAltitudes(w io.Writer, samples []domain.AltitudeSample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(samples)
}
