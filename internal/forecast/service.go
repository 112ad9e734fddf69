package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/earthdata-action/pm25-predictor/internal/features"
	"github.com/earthdata-action/pm25-predictor/internal/model"
	"github.com/earthdata-action/pm25-predictor/internal/openmeteo"
)

var (
	// ErrCityNotFound means the city name could not be resolved to coordinates.
	ErrCityNotFound = errors.New("could not resolve city to coordinates")
	// ErrNoPM25Data means the air-quality API returned no usable observations.
	ErrNoPM25Data = errors.New("no pm2.5 data for the requested city and dates")
	// ErrNoWeatherData means the weather archive returned no usable observations.
	ErrNoWeatherData = errors.New("no weather data for the requested city and dates")
	// ErrUpstream wraps transport failures talking to the external APIs.
	ErrUpstream = errors.New("upstream data service unavailable")
)

// Source abstracts the external geocoding and observation APIs.
type Source interface {
	Geocode(ctx context.Context, city string) (openmeteo.Coordinates, bool)
	FetchPM25(ctx context.Context, coords openmeteo.Coordinates, start, end time.Time) ([]features.PM25Sample, error)
	FetchWeather(ctx context.Context, coords openmeteo.Coordinates, start, end time.Time) ([]features.WeatherSample, error)
}

// Store is the contract the in-memory result cache (and any future persistent
// store) must satisfy.
type Store interface {
	SaveResult(key string, r Result)
	GetLatest(key string) (Result, error)
	GetRange(key string, from, to time.Time) ([]Result, error)
}

// Request identifies one forecast computation: a city and an inclusive
// calendar date range of history to fetch.
type Request struct {
	City  string
	Start time.Time
	End   time.Time
}

func (r Request) key() string {
	return strings.ToLower(strings.TrimSpace(r.City)) + "|" +
		r.Start.Format("2006-01-02") + "|" + r.End.Format("2006-01-02")
}

// Prediction is the single-step forecast for the day after the observed range.
type Prediction struct {
	PM25      float64   `json:"pm25"`
	Date      time.Time `json:"date"`
	DayOfYear int       `json:"dayofyear"`
}

// Result is everything one request produces: the derived daily feature table
// and, when enough history exists, the next-day prediction. Warning is set
// instead of Prediction when the history is too short.
type Result struct {
	City        string                `json:"city"`
	Coordinates openmeteo.Coordinates `json:"coordinates"`
	Start       time.Time             `json:"start"`
	End         time.Time             `json:"end"`
	Daily       []features.DailyRow   `json:"daily"`
	Prediction  *Prediction           `json:"prediction,omitempty"`
	Warning     string                `json:"warning,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// Options tune the service; zero values select the defaults.
type Options struct {
	// MinDailyRows is the smallest daily table a prediction is attempted on.
	MinDailyRows int
	// HistoryDays sets the default fetch range when a request has no dates.
	HistoryDays int
}

// Service orchestrates one synchronous forecast: resolve the city, fetch both
// hourly series, derive the daily feature table, assemble the next-day row,
// and apply the model. Computed results are cached in the store.
type Service struct {
	source       Source
	model        *model.Artifact
	store        Store
	minDailyRows int
	historyDays  int
}

// NewService creates a Service. The model artifact is shared and read-only.
func NewService(source Source, artifact *model.Artifact, store Store, opts Options) *Service {
	if opts.MinDailyRows <= 0 {
		opts.MinDailyRows = 10
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 120
	}
	return &Service{
		source:       source,
		model:        artifact,
		store:        store,
		minDailyRows: opts.MinDailyRows,
		historyDays:  opts.HistoryDays,
	}
}

// DefaultRange returns the fetch range used when a request carries no dates:
// the configured number of history days ending today.
func (s *Service) DefaultRange(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -s.historyDays), end
}

// Forecast computes (or serves from cache) the result for one request.
func (s *Service) Forecast(ctx context.Context, req Request) (Result, error) {
	key := req.key()
	if cached, err := s.store.GetLatest(key); err == nil {
		return cached, nil
	}

	coords, ok := s.source.Geocode(ctx, req.City)
	if !ok {
		return Result{}, ErrCityNotFound
	}

	pm, err := s.source.FetchPM25(ctx, coords, req.Start, req.End)
	if err != nil {
		return Result{}, fmt.Errorf("%w: pm2.5 fetch: %v", ErrUpstream, err)
	}
	if len(pm) == 0 {
		return Result{}, ErrNoPM25Data
	}

	wx, err := s.source.FetchWeather(ctx, coords, req.Start, req.End)
	if err != nil {
		return Result{}, fmt.Errorf("%w: weather fetch: %v", ErrUpstream, err)
	}
	if len(wx) == 0 {
		return Result{}, ErrNoWeatherData
	}

	daily := features.Derive(features.BuildDaily(pm, wx))
	if len(daily) == 0 {
		return Result{}, ErrNoPM25Data
	}

	result := Result{
		City:        req.City,
		Coordinates: coords,
		Start:       req.Start,
		End:         req.End,
		Daily:       daily,
		GeneratedAt: time.Now().UTC(),
	}

	if len(daily) < s.minDailyRows {
		result.Warning = fmt.Sprintf(
			"only %d daily rows after feature creation; at least %d are needed for a stable prediction",
			len(daily), s.minDailyRows)
		s.store.SaveResult(key, result)
		return result, nil
	}

	input, err := assembleInput(daily)
	if err != nil {
		return Result{}, err
	}

	y, err := s.model.Predict(input.Row())
	if err != nil {
		return Result{}, fmt.Errorf("apply model: %w", err)
	}

	last := daily[len(daily)-1]
	result.Prediction = &Prediction{
		PM25:      y,
		Date:      last.Date.AddDate(0, 0, 1),
		DayOfYear: input.DayOfYear,
	}

	s.store.SaveResult(key, result)
	return result, nil
}

// History returns previously computed results for the same request, newest
// last, within [from, to].
func (s *Service) History(req Request, from, to time.Time) ([]Result, error) {
	return s.store.GetRange(req.key(), from, to)
}
