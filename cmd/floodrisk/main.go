package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/sea-level-risk/internal/adapter/dataset"
	"github.com/couchcryptid/sea-level-risk/internal/adapter/elevation"
	"github.com/couchcryptid/sea-level-risk/internal/adapter/geojson"
	httpadapter "github.com/couchcryptid/sea-level-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sea-level-risk/internal/adapter/kafka"
	"github.com/couchcryptid/sea-level-risk/internal/config"
	"github.com/couchcryptid/sea-level-risk/internal/observability"
	"github.com/couchcryptid/sea-level-risk/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	region, err := cfg.Region()
	if err != nil {
		logger.Error("invalid region", "error", err)
		os.Exit(1)
	}

	datasets, err := newDatasetSource(cfg)
	if err != nil {
		logger.Error("invalid dataset config", "error", err)
		os.Exit(1)
	}

	// Altitudes come from the elevation API when enabled (SEALEVEL_ELEVATION_ENABLED),
	// otherwise from SEALEVEL_ALTITUDE_FILE.
	var altitudes pipeline.AltitudeSource
	if cfg.ElevationEnabled {
		client := elevation.NewClient(cfg.ElevationURL, cfg.ElevationTimeout, metrics, logger)
		lookup := elevation.NewCachedLookup(client, cfg.ElevationCacheSize, metrics)
		altitudes = pipeline.NewElevationSampler(lookup, cfg.ElevationConcurrency, logger, metrics)
		logger.Info("elevation lookup enabled",
			"url", cfg.ElevationURL,
			"cache_size", cfg.ElevationCacheSize,
			"concurrency", cfg.ElevationConcurrency,
		)
	} else {
		altitudes = dataset.AltitudeFile{Path: cfg.AltitudeFile}
		logger.Info("elevation lookup disabled, reading altitude file", "path", cfg.AltitudeFile)
	}

	var loaders []pipeline.ReportLoader
	if cfg.OutputFile != "" {
		loaders = append(loaders, geojson.FileSink{Path: cfg.OutputFile})
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
	}

	settings := pipeline.Settings{
		Region:           region,
		Rows:             cfg.GridRows,
		Cols:             cfg.GridCols,
		Decades:          cfg.Decades,
		Integrator:       cfg.Integrator(),
		StrictBoundaries: cfg.StrictBoundaries,
		SinkMaxAttempts:  cfg.SinkMaxAttempts,
	}
	p := pipeline.New(datasets, altitudes, loaders, settings, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the assessment once; the report stays available over HTTP until shutdown.
	go func() {
		if err := p.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newDatasetSource(cfg *config.Config) (pipeline.DatasetSource, error) {
	if cfg.DatasetFormat != "netcdf" {
		return dataset.JSONSource{Path: cfg.DatasetFile}, nil
	}
	cells, err := cfg.Cells()
	if err != nil {
		return nil, err
	}
	return dataset.NetCDFSource{
		TemperaturePath:  cfg.TemperatureFile,
		TemperatureVar:   cfg.TemperatureVar,
		Cells:            cells,
		BaseYear:         cfg.TemperatureBaseYear,
		Years:            cfg.TemperatureYears,
		Stride:           cfg.TemperatureStride,
		SeaLevelPath:     cfg.SeaLevelFile,
		SeaLevelVar:      cfg.SeaLevelVar,
		SeaLevelBaseYear: cfg.SeaLevelBaseYear,
		SeaLevelOffset:   cfg.SeaLevelOffset,
		SeaLevelYears:    cfg.SeaLevelYears,
	}, nil
}
