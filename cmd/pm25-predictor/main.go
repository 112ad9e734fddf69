package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/earthdata-action/pm25-predictor/internal/api/http"
	"github.com/earthdata-action/pm25-predictor/internal/config"
	"github.com/earthdata-action/pm25-predictor/internal/forecast"
	"github.com/earthdata-action/pm25-predictor/internal/model"
	"github.com/earthdata-action/pm25-predictor/internal/openmeteo"
	"github.com/earthdata-action/pm25-predictor/internal/scheduler"
	"github.com/earthdata-action/pm25-predictor/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The model artifact is loaded once; a missing or malformed artifact is
	// fatal at startup.
	artifact, err := model.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("failed to load model artifact: %v", err)
	}

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := openmeteo.NewClient(httpClient, openmeteo.Config{
		GoogleAPIKey: cfg.GeocoderAPIKey,
	})

	// In-memory result cache with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Core service orchestrating fetch, feature derivation, and prediction.
	service := forecast.NewService(client, artifact, memStore, forecast.Options{
		MinDailyRows: cfg.MinDailyRows,
		HistoryDays:  cfg.HistoryDays,
	})

	// Warmer that periodically recomputes forecasts for configured cities.
	warmer := scheduler.New(cfg.WarmCities, cfg.WarmInterval, 4*cfg.HTTPTimeout, service)
	if err := warmer.Start(); err != nil {
		log.Fatalf("failed to start warmer: %v", err)
	}
	defer warmer.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "pm25-predictor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "pm25-predictor",
		})
	})

	// Demo page and API routes.
	httpapi.RegisterRoutes(app, service)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
