package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultGeocodingURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	defaultArchiveURL    = "https://archive-api.open-meteo.com/v1/archive"

	// hourlyTimeLayout is the timestamp format of Open-Meteo hourly arrays.
	hourlyTimeLayout = "2006-01-02T15:04"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Config carries optional overrides for the Open-Meteo endpoints (used by
// tests) and the Google geocoding fallback key.
type Config struct {
	GeocodingURL  string
	AirQualityURL string
	ArchiveURL    string

	// GoogleAPIKey, when set, enables a Google geocoding fallback for cities
	// Open-Meteo cannot resolve.
	GoogleAPIKey string
}

// Client talks to the Open-Meteo geocoding, air-quality, and weather-archive
// APIs. Outbound calls go through a shared circuit breaker; a failed call is
// never retried.
type Client struct {
	httpClient *http.Client
	cfg        Config
	circuit    *gobreaker.CircuitBreaker
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// NewClient creates a Client around the given HTTP client, which supplies the
// outbound timeout.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = defaultGeocodingURL
	}
	if cfg.AirQualityURL == "" {
		cfg.AirQualityURL = defaultAirQualityURL
	}
	if cfg.ArchiveURL == "" {
		cfg.ArchiveURL = defaultArchiveURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		circuit:    cb,
	}
}

// getJSON issues a single GET through the circuit breaker and decodes the
// response into out. One attempt only; transport and status errors surface
// immediately to the caller.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if c.httpClient == nil {
		return errNoHTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
