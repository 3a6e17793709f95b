package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "SEALEVEL_"
	envConfig  = "SEALEVEL_CONFIG"
	formatJSON = "json"
	formatNCDF = "netcdf"
)

// Config holds all service settings. Values are layered from defaults, an
// optional YAML file named by SEALEVEL_CONFIG, and SEALEVEL_* environment
// variables, in that order of precedence.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Study region and sampling grid.
	RegionLatMin float64 `koanf:"region_lat_min"`
	RegionLatMax float64 `koanf:"region_lat_max"`
	RegionLonMin float64 `koanf:"region_lon_min"`
	RegionLonMax float64 `koanf:"region_lon_max"`
	GridRows     int     `koanf:"grid_rows"`
	GridCols     int     `koanf:"grid_cols"`

	// Model settings.
	Decades          []int `koanf:"decades"`
	ReferenceYear    int   `koanf:"reference_year"`
	Subdivisions     int   `koanf:"subdivisions"`
	StrictBoundaries bool  `koanf:"strict_boundaries"`

	// Datasets. DatasetFormat is "json" (DatasetFile) or "netcdf".
	DatasetFormat       string   `koanf:"dataset_format"`
	DatasetFile         string   `koanf:"dataset_file"`
	TemperatureFile     string   `koanf:"temperature_file"`
	TemperatureVar      string   `koanf:"temperature_var"`
	TemperatureCells    []string `koanf:"temperature_cells"` // "latIndex:lonIndex" per quadrant
	TemperatureBaseYear int      `koanf:"temperature_base_year"`
	TemperatureYears    int      `koanf:"temperature_years"`
	TemperatureStride   int      `koanf:"temperature_stride"`
	SeaLevelFile        string   `koanf:"sea_level_file"`
	SeaLevelVar         string   `koanf:"sea_level_var"`
	SeaLevelBaseYear    int      `koanf:"sea_level_base_year"`
	SeaLevelOffset      int      `koanf:"sea_level_offset"`
	SeaLevelYears       int      `koanf:"sea_level_years"`
	AltitudeFile        string   `koanf:"altitude_file"`

	// Elevation lookup configuration.
	ElevationEnabled     bool          `koanf:"elevation_enabled"`
	ElevationURL         string        `koanf:"elevation_url"`
	ElevationTimeout     time.Duration `koanf:"elevation_timeout"`
	ElevationCacheSize   int           `koanf:"elevation_cache_size"`
	ElevationConcurrency int           `koanf:"elevation_concurrency"`

	// Sinks.
	KafkaEnabled    bool     `koanf:"kafka_enabled"`
	KafkaBrokers    []string `koanf:"kafka_brokers"`
	KafkaTopic      string   `koanf:"kafka_topic"`
	OutputFile      string   `koanf:"output_file"`
	SinkMaxAttempts int      `koanf:"sink_max_attempts"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		RegionLatMin: 40,
		RegionLatMax: 84,
		RegionLonMin: -146,
		RegionLonMax: -50,
		GridRows:     10,
		GridCols:     10,

		Decades:       append([]int(nil), domain.DefaultDecades...),
		ReferenceYear: domain.DefaultReferenceYear,
		Subdivisions:  domain.DefaultSubdivisions,

		DatasetFormat:       formatJSON,
		DatasetFile:         "data/datasets.json",
		TemperatureVar:      "tas",
		TemperatureCells:    []string{"0:0", "0:1", "1:0", "1:1"},
		TemperatureBaseYear: 2006,
		TemperatureYears:    95,
		TemperatureStride:   12,
		SeaLevelVar:         "global_average_sea_level_change",
		SeaLevelBaseYear:    2006,
		SeaLevelOffset:      106,
		SeaLevelYears:       13,
		AltitudeFile:        "data/altitudes.json",

		ElevationURL:         "https://api.open-elevation.com",
		ElevationTimeout:     5 * time.Second,
		ElevationCacheSize:   1000,
		ElevationConcurrency: 8,

		KafkaBrokers:    []string{"localhost:9092"},
		KafkaTopic:      "flood-records",
		SinkMaxAttempts: 5,
	}
}

// Load builds a Config by layering defaults, an optional YAML file and
// SEALEVEL_* environment variables. A .env file in the working directory is
// read first if present; it never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(defaultsProvider{New()}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// SEALEVEL_GRID_ROWS -> grid_rows. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfig {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultsProvider exposes a Config as a flat koanf map keyed by its koanf
// tags, so that later layers replace slices rather than merging into them.
type defaultsProvider struct{ cfg *Config }

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("defaults provider does not support ReadBytes")
}

func (p defaultsProvider) Read() (map[string]any, error) {
	v := reflect.ValueOf(p.cfg).Elem()
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := range t.NumField() {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			out[tag] = v.Field(i).Interface()
		}
	}
	return out, nil
}

func (c *Config) validate() error {
	if _, err := c.Region(); err != nil {
		return fmt.Errorf("SEALEVEL_REGION_*: %w", err)
	}
	if c.GridRows < 1 || c.GridCols < 1 {
		return errors.New("SEALEVEL_GRID_ROWS and SEALEVEL_GRID_COLS must be >= 1")
	}
	if len(c.Decades) == 0 {
		return errors.New("SEALEVEL_DECADES must list at least one year")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SEALEVEL_SHUTDOWN_TIMEOUT must be positive")
	}

	switch c.DatasetFormat {
	case formatJSON:
		if c.DatasetFile == "" {
			return errors.New("SEALEVEL_DATASET_FILE is required for the json dataset format")
		}
	case formatNCDF:
		if c.TemperatureFile == "" || c.SeaLevelFile == "" {
			return errors.New("SEALEVEL_TEMPERATURE_FILE and SEALEVEL_SEA_LEVEL_FILE are required for the netcdf dataset format")
		}
		if _, err := c.Cells(); err != nil {
			return err
		}
		if c.TemperatureYears < 1 || c.TemperatureStride < 1 || c.SeaLevelYears < 1 || c.SeaLevelOffset < 0 {
			return errors.New("netcdf year counts and stride must be positive")
		}
	default:
		return fmt.Errorf("SEALEVEL_DATASET_FORMAT must be %q or %q, got %q", formatJSON, formatNCDF, c.DatasetFormat)
	}

	if !c.ElevationEnabled && c.AltitudeFile == "" {
		return errors.New("either SEALEVEL_ALTITUDE_FILE or SEALEVEL_ELEVATION_ENABLED is required")
	}
	if c.ElevationEnabled {
		if c.ElevationURL == "" {
			return errors.New("SEALEVEL_ELEVATION_ENABLED is true but SEALEVEL_ELEVATION_URL is not set")
		}
		if c.ElevationTimeout <= 0 {
			return errors.New("invalid SEALEVEL_ELEVATION_TIMEOUT")
		}
		if c.ElevationCacheSize < 1 || c.ElevationConcurrency < 1 {
			return errors.New("SEALEVEL_ELEVATION_CACHE_SIZE and SEALEVEL_ELEVATION_CONCURRENCY must be >= 1")
		}
	}

	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("SEALEVEL_KAFKA_BROKERS is required when kafka is enabled")
		}
		if c.KafkaTopic == "" {
			return errors.New("SEALEVEL_KAFKA_TOPIC is required when kafka is enabled")
		}
	}
	if c.SinkMaxAttempts < 1 {
		return errors.New("SEALEVEL_SINK_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}

// Region returns the configured study region.
func (c *Config) Region() (domain.Region, error) {
	return domain.NewRegion(c.RegionLatMin, c.RegionLatMax, c.RegionLonMin, c.RegionLonMax)
}

// Integrator returns the configured anomaly integrator.
func (c *Config) Integrator() domain.Integrator {
	return domain.Integrator{ReferenceYear: float64(c.ReferenceYear), Subdivisions: c.Subdivisions}
}

// Cells parses TemperatureCells into one (latIndex, lonIndex) pair per quadrant.
func (c *Config) Cells() ([len(domain.Quadrants)][2]int, error) {
	var out [len(domain.Quadrants)][2]int
	if len(c.TemperatureCells) != len(out) {
		return out, fmt.Errorf("SEALEVEL_TEMPERATURE_CELLS needs %d entries, got %d", len(out), len(c.TemperatureCells))
	}
	for i, s := range c.TemperatureCells {
		latStr, lonStr, ok := strings.Cut(strings.TrimSpace(s), ":")
		lat, errLat := strconv.Atoi(latStr)
		lon, errLon := strconv.Atoi(lonStr)
		if !ok || errLat != nil || errLon != nil || lat < 0 || lon < 0 {
			return out, fmt.Errorf("SEALEVEL_TEMPERATURE_CELLS entry %q must be latIndex:lonIndex", s)
		}
		out[i] = [2]int{lat, lon}
	}
	return out, nil
}
