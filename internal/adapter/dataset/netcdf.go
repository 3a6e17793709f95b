package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/ctessum/cdf"
)

// NetCDFSource reads ClimateData from CMIP-style NetCDF files: a monthly
// surface temperature field tas[time, lat, lon] and a global mean sea-level
// change series.
type NetCDFSource struct {
	TemperaturePath string
	TemperatureVar  string
	// Cells is the (lat index, lon index) of the temperature cell sampled
	// for each quadrant, in quadrant index order.
	Cells    [len(domain.Quadrants)][2]int
	BaseYear int // year of time index 0
	Years    int // number of yearly samples
	Stride   int // time steps per year

	SeaLevelPath     string
	SeaLevelVar      string
	SeaLevelBaseYear int // year of SeaLevelOffset
	SeaLevelOffset   int // index of the first sample
	SeaLevelYears    int
}

// Load reads both files. They may be the same path.
func (s NetCDFSource) Load(ctx context.Context) (*domain.ClimateData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Years < 1 || s.Stride < 1 || s.SeaLevelYears < 1 {
		return nil, errors.New("netcdf source: year counts and stride must be positive")
	}

	data := &domain.ClimateData{}
	err := withFile(s.TemperaturePath, func(f *cdf.File) error {
		for _, q := range domain.Quadrants {
			series, err := s.readTemperature(f, s.Cells[q])
			if err != nil {
				return fmt.Errorf("quadrant %s: %w", q, err)
			}
			data.Temperatures[q] = series
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = withFile(s.SeaLevelPath, func(f *cdf.File) error {
		series, err := s.readSeaLevel(f)
		data.SeaLevels = series
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func withFile(path string, fn func(*cdf.File) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open netcdf: %w", err)
	}
	defer file.Close()

	f, err := cdf.Open(file)
	if err != nil {
		return fmt.Errorf("netcdf %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		return fmt.Errorf("netcdf %s: %w", path, err)
	}
	return nil
}

func (s NetCDFSource) readTemperature(f *cdf.File, cell [2]int) (domain.TemperatureSeries, error) {
	dims := f.Header.Lengths(s.TemperatureVar)
	if len(dims) != 3 {
		return nil, fmt.Errorf("variable %s: want 3 dimensions, got %d", s.TemperatureVar, len(dims))
	}
	lat, lon := cell[0], cell[1]
	if lat >= dims[1] || lon >= dims[2] {
		return nil, fmt.Errorf("variable %s: cell %d:%d outside %dx%d grid", s.TemperatureVar, lat, lon, dims[1], dims[2])
	}
	// A zero leading length marks an unlimited record dimension; the reader
	// reports overruns itself.
	if last := (s.Years - 1) * s.Stride; dims[0] > 0 && last >= dims[0] {
		return nil, fmt.Errorf("variable %s: time index %d beyond %d steps", s.TemperatureVar, last, dims[0])
	}

	series := make(domain.TemperatureSeries, s.Years)
	for i := range s.Years {
		v, err := readValue(f, s.TemperatureVar, []int{i * s.Stride, lat, lon})
		if err != nil {
			return nil, err
		}
		series[s.BaseYear+i] = v
	}
	return series, nil
}

func (s NetCDFSource) readSeaLevel(f *cdf.File) (domain.SeaLevelSeries, error) {
	dims := f.Header.Lengths(s.SeaLevelVar)
	if len(dims) != 1 {
		return nil, fmt.Errorf("variable %s: want 1 dimension, got %d", s.SeaLevelVar, len(dims))
	}
	if last := s.SeaLevelOffset + s.SeaLevelYears - 1; dims[0] > 0 && last >= dims[0] {
		return nil, fmt.Errorf("variable %s: index %d beyond %d samples", s.SeaLevelVar, last, dims[0])
	}

	series := make(domain.SeaLevelSeries, s.SeaLevelYears)
	for i := range s.SeaLevelYears {
		v, err := readValue(f, s.SeaLevelVar, []int{s.SeaLevelOffset + i})
		if err != nil {
			return nil, err
		}
		series[s.SeaLevelBaseYear+i] = v
	}
	return series, nil
}

// readValue reads the single element at index from a numeric variable.
func readValue(f *cdf.File, variable string, index []int) (float64, error) {
	end := make([]int, len(index))
	for i, v := range index {
		end[i] = v + 1
	}
	r := f.Reader(variable, index, end)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return 0, fmt.Errorf("read %s%v: %w", variable, index, err)
	}

	switch vals := buf.(type) {
	case []float32:
		return float64(vals[0]), nil
	case []float64:
		return vals[0], nil
	case []int32:
		return float64(vals[0]), nil
	case []int16:
		return float64(vals[0]), nil
	default:
		return 0, fmt.Errorf("variable %s: unsupported element type %T", variable, buf)
	}
}
