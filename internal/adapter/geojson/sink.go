package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
)

// FileSink writes each report to Path, replacing the previous one. A
// ".geojson" extension selects the FeatureCollection form; anything else is
// the JSON FloodReport.
type FileSink struct {
	Path string
}

// Name identifies the sink in logs and metrics.
func (s FileSink) Name() string { return "file" }

// LoadReport encodes the report and swaps it into place with a rename, so
// readers never observe a partially written file.
func (s FileSink) LoadReport(ctx context.Context, report *domain.FloodReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(s.Path, report)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by FileSink, choosing the decoder by
// extension.
func ReadReport(path string) (*domain.FloodReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isGeoJSON(path) {
		return Unmarshal(data)
	}
	var report domain.FloodReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

func encode(path string, report *domain.FloodReport) ([]byte, error) {
	if isGeoJSON(path) {
		return Marshal(report)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func isGeoJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".geojson")
}
