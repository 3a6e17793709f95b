package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/adapter/geojson"
	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportProvider returns the most recent flood report, or nil before the
// first run completes.
type ReportProvider interface {
	Latest() *domain.FloodReport
}

// Server exposes health, readiness, metrics, and flood-record endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/flood-records routes.
func NewServer(addr string, ready ReadinessChecker, reports ReportProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/flood-records", s.handleRecords)
	mux.HandleFunc("GET /v1/flood-records.geojson", s.handleRecordsGeoJSON)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleRecords serves the latest report, optionally narrowed to one year
// with ?year=N.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRecordsGeoJSON(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latest(w, r)
	if !ok {
		return
	}
	data, err := geojson.Marshal(report)
	if err != nil {
		s.logger.Error("encode geojson", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode geojson"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

// latest resolves the report for a request and writes the error response
// itself when there is none.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*domain.FloodReport, bool) {
	report := s.reports.Latest()
	if report == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no flood report available yet"})
		return nil, false
	}

	raw := r.URL.Query().Get("year")
	if raw == "" {
		return report, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year must be an integer"})
		return nil, false
	}
	return filterYear(report, year), true
}

// filterYear returns a shallow copy of report holding only records for year.
func filterYear(report *domain.FloodReport, year int) *domain.FloodReport {
	out := *report
	out.Records = make([]domain.FloodRecord, 0)
	points := make(map[[2]float64]struct{})
	for _, rec := range report.Records {
		if rec.Year == year {
			out.Records = append(out.Records, rec)
			points[[2]float64{rec.Lat, rec.Lon}] = struct{}{}
		}
	}
	out.PointsAtRisk = len(points)
	return &out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
