package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/earthdata-action/pm25-predictor/internal/features"
	"github.com/earthdata-action/pm25-predictor/internal/forecast"
	"github.com/earthdata-action/pm25-predictor/internal/store"
)

//go:embed static/index.html
var staticFS embed.FS

var validate = validator.New()

// RegisterRoutes wires the demo page and the API handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *forecast.Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		page, err := staticFS.ReadFile("static/index.html")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "demo page unavailable")
		}
		c.Type("html", "utf-8")
		return c.Send(page)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req, err := bindForecastQuery(c, service)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Forecast(c.Context(), req)
		if err != nil {
			return mapServiceError(err)
		}

		return c.JSON(result)
	})

	v1.Get("/forecast/csv", func(c *fiber.Ctx) error {
		req, err := bindForecastQuery(c, service)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Forecast(c.Context(), req)
		if err != nil {
			return mapServiceError(err)
		}
		if len(result.Daily) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no daily feature rows for requested range")
		}

		var buf bytes.Buffer
		if err := features.WriteCSV(&buf, result.Daily); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode csv")
		}

		c.Attachment(fmt.Sprintf("%s_daily_features.csv", req.City))
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	})

	v1.Get("/forecast/history", func(c *fiber.Ctx) error {
		req, err := bindForecastQuery(c, service)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// History covers results generated in the last day.
		now := time.Now().UTC()
		results, err := service.History(req, now.Add(-24*time.Hour), now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no recorded forecasts for requested city and range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast history")
		}

		return c.JSON(fiber.Map{
			"city":    req.City,
			"results": results,
		})
	})
}

// forecastQuery holds query parameters for the forecast endpoints.
type forecastQuery struct {
	City  string    `validate:"required"`
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtefield=Start"`
}

// bindForecastQuery parses and validates city/start_date/end_date. Missing
// dates default to the service's configured history range ending today.
func bindForecastQuery(c *fiber.Ctx, service *forecast.Service) (forecast.Request, error) {
	var q forecastQuery
	q.City = c.Query("city")

	end := time.Now().UTC()
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return forecast.Request{}, err
		}
		end = parsed
	}

	defaultStart, defaultEnd := service.DefaultRange(end)
	q.End = defaultEnd

	q.Start = defaultStart
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return forecast.Request{}, err
		}
		q.Start = parsed
	}

	if err := validate.Struct(q); err != nil {
		return forecast.Request{}, err
	}

	return forecast.Request{City: q.City, Start: q.Start, End: q.End}, nil
}

// parseDate parses an ISO-8601 calendar date.
func parseDate(s string) (time.Time, error) {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD", s)
	}
	return ts.UTC(), nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, forecast.ErrCityNotFound),
		errors.Is(err, forecast.ErrNoPM25Data),
		errors.Is(err, forecast.ErrNoWeatherData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, forecast.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
