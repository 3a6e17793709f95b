// Package elevation resolves land altitudes through an Open-Elevation
// compatible HTTP API.
package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/observability"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated
// upstream failures.
var ErrCircuitOpen = errors.New("elevation circuit breaker open")

// Client implements domain.ElevationLookup against GET {base}/api/v1/lookup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	circuit    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an elevation client. The breaker opens after five
// consecutive failed requests and probes again after 30 seconds.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		circuit:    newBreaker(logger),
		metrics:    metrics,
		logger:     logger,
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "elevation",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Elevation looks up one coordinate. A null elevation, an empty result list
// or a 404 reports ok=false.
func (c *Client) Elevation(ctx context.Context, lat, lon float64) (float64, bool, error) {
	params := url.Values{
		"locations": {strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)},
	}
	fullURL := c.baseURL + "/api/v1/lookup?" + params.Encode()

	start := time.Now()
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, fullURL)
	})
	c.metrics.ElevationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ElevationRequests.WithLabelValues("error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, false, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return 0, false, err
	}

	alt, _ := result.(*float64)
	if alt == nil {
		c.metrics.ElevationRequests.WithLabelValues("absent").Inc()
		return 0, false, nil
	}
	c.metrics.ElevationRequests.WithLabelValues("success").Inc()
	return *alt, true, nil
}

// doRequest returns a nil altitude for points the provider does not cover.
// Those count as successes for the breaker.
func (c *Client) doRequest(ctx context.Context, fullURL string) (*float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevation API error: status %d: %s", resp.StatusCode, body)
	}

	var lookup response
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(lookup.Results) == 0 {
		return nil, nil
	}
	return lookup.Results[0].Elevation, nil
}

// Open-Elevation API response types.

type response struct {
	Results []result `json:"results"`
}

type result struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}
