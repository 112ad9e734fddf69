package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/earthdata-action/pm25-predictor/internal/features"
	"github.com/earthdata-action/pm25-predictor/internal/forecast"
	"github.com/earthdata-action/pm25-predictor/internal/model"
	"github.com/earthdata-action/pm25-predictor/internal/openmeteo"
	"github.com/earthdata-action/pm25-predictor/internal/store"
)

// stubSource serves a constant 30-day history for any resolvable city.
type stubSource struct {
	resolved bool
}

func (s *stubSource) Geocode(_ context.Context, _ string) (openmeteo.Coordinates, bool) {
	return openmeteo.Coordinates{Latitude: 28.65, Longitude: 77.22}, s.resolved
}

func (s *stubSource) FetchPM25(_ context.Context, _ openmeteo.Coordinates, start, _ time.Time) ([]features.PM25Sample, error) {
	var pm []features.PM25Sample
	for d := 0; d < 30; d++ {
		for h := 0; h < 24; h++ {
			pm = append(pm, features.PM25Sample{
				Timestamp: start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour),
				PM25:      42,
			})
		}
	}
	return pm, nil
}

func (s *stubSource) FetchWeather(_ context.Context, _ openmeteo.Coordinates, start, _ time.Time) ([]features.WeatherSample, error) {
	var wx []features.WeatherSample
	for d := 0; d < 30; d++ {
		for h := 0; h < 24; h++ {
			wx = append(wx, features.WeatherSample{
				Timestamp:        start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour),
				Temperature:      20,
				RelativeHumidity: 50,
				WindSpeed:        3,
			})
		}
	}
	return wx, nil
}

func testArtifact(t *testing.T) *model.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{
	  "features": ["temperature", "relativehumidity", "windspeed",
	    "pm25_lag_1", "pm25_lag_2", "pm25_lag_3", "pm25_lag_7",
	    "pm25_ma_3", "dayofyear"],
	  "model": {
	    "type": "linear_regression",
	    "intercept": 0,
	    "coefficients": {
	      "temperature": 0, "relativehumidity": 0, "windspeed": 0,
	      "pm25_lag_1": 1.0, "pm25_lag_2": 0, "pm25_lag_3": 0,
	      "pm25_lag_7": 0, "pm25_ma_3": 0, "dayofyear": 0
	    }
	  }
	}`), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	a, err := model.Load(path)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	return a
}

func testApp(t *testing.T, resolved bool) *fiber.App {
	t.Helper()
	app := fiber.New()

	memStore := store.NewMemoryStore(10, time.Hour)
	svc := forecast.NewService(&stubSource{resolved: resolved}, testArtifact(t), memStore, forecast.Options{})
	RegisterRoutes(app, svc)
	return app
}

// TestForecastQueryValidation verifies that bad query parameters produce 400s
// before any external work happens.
func TestForecastQueryValidation(t *testing.T) {
	app := testApp(t, true)

	// Missing city should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?start_date=2024-01-01&end_date=2024-01-30", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Unparseable date should also return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/forecast?city=Delhi&start_date=01/01/2024", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// End before start should return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/forecast?city=Delhi&start_date=2024-01-30&end_date=2024-01-01", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestForecastEndpoint(t *testing.T) {
	app := testApp(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?city=Delhi&start_date=2024-01-01&end_date=2024-01-30", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body forecast.Result
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Daily) != 30 {
		t.Fatalf("expected 30 daily rows, got %d", len(body.Daily))
	}
	if body.Prediction == nil {
		t.Fatal("expected a prediction")
	}
	if body.Prediction.PM25 != 42 {
		t.Fatalf("expected prediction 42, got %f", body.Prediction.PM25)
	}
}

func TestForecastUnresolvedCity(t *testing.T) {
	app := testApp(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?city=Nowhereville&start_date=2024-01-01&end_date=2024-01-30", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestForecastCSVDownload(t *testing.T) {
	app := testApp(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/csv?city=Delhi&start_date=2024-01-01&end_date=2024-01-30", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	if cd := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(cd, "Delhi_daily_features.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 31 { // header + 30 rows
		t.Fatalf("expected 31 csv lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,pm25,") {
		t.Fatalf("unexpected csv header %q", lines[0])
	}
}
