package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// ModelPath locates the serialized regression artifact. Loading it is a
	// startup-fatal operation.
	ModelPath string

	// HTTPTimeout bounds every outbound API call. There is no retry on top.
	HTTPTimeout time.Duration

	// MinDailyRows is the smallest daily feature table worth predicting on.
	MinDailyRows int

	// HistoryDays is the default fetch range when a request omits dates.
	HistoryDays int

	// WarmCities are recomputed on a schedule so the demo answers instantly.
	WarmCities   []string
	WarmInterval time.Duration

	// GeocoderAPIKey enables the Google geocoding fallback when set.
	GeocoderAPIKey string

	// Result-cache retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.ModelPath = getenvDefault("MODEL_PATH", "model.json")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.MinDailyRows = getenvInt("MIN_DAILY_ROWS", 10)
	cfg.HistoryDays = getenvInt("HISTORY_DAYS", 120)

	if cities := os.Getenv("WARM_CITIES"); cities != "" {
		for _, c := range strings.Split(cities, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.WarmCities = append(cfg.WarmCities, c)
			}
		}
	}

	warmInterval, err := getenvDuration("WARM_INTERVAL", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid WARM_INTERVAL: %w", err)
	}
	cfg.WarmInterval = warmInterval

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 24)

	maxAge, err := getenvDuration("STORE_MAX_AGE", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(getenvDefault(key, def))
}
