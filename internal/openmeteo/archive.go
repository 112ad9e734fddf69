package openmeteo

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/earthdata-action/pm25-predictor/internal/features"
)

// FetchWeather retrieves the hourly temperature, relative humidity, and wind
// speed series from the weather archive for the given coordinates and
// inclusive date range. Structurally this mirrors FetchPM25: a payload missing
// any expected array yields an empty series and no error.
func (c *Client) FetchWeather(ctx context.Context, coords Coordinates, start, end time.Time) ([]features.WeatherSample, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	values.Set("start_date", start.Format("2006-01-02"))
	values.Set("end_date", end.Format("2006-01-02"))
	values.Set("hourly", "temperature_2m,relative_humidity_2m,windspeed_10m")

	u := fmt.Sprintf("%s?%s", c.cfg.ArchiveURL, values.Encode())

	var payload struct {
		Hourly struct {
			Time             []string   `json:"time"`
			Temperature      []*float64 `json:"temperature_2m"`
			RelativeHumidity []*float64 `json:"relative_humidity_2m"`
			WindSpeed        []*float64 `json:"windspeed_10m"`
		} `json:"hourly"`
	}

	if err := c.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	n := len(payload.Hourly.Time)
	if n == 0 ||
		len(payload.Hourly.Temperature) != n ||
		len(payload.Hourly.RelativeHumidity) != n ||
		len(payload.Hourly.WindSpeed) != n {
		return nil, nil
	}

	samples := make([]features.WeatherSample, 0, n)
	for i, raw := range payload.Hourly.Time {
		if payload.Hourly.Temperature[i] == nil ||
			payload.Hourly.RelativeHumidity[i] == nil ||
			payload.Hourly.WindSpeed[i] == nil {
			continue
		}
		ts, err := time.ParseInLocation(hourlyTimeLayout, raw, time.UTC)
		if err != nil {
			log.Printf("skipping weather sample with bad timestamp %q: %v", raw, err)
			continue
		}
		samples = append(samples, features.WeatherSample{
			Timestamp:        ts,
			Temperature:      *payload.Hourly.Temperature[i],
			RelativeHumidity: *payload.Hourly.RelativeHumidity[i],
			WindSpeed:        *payload.Hourly.WindSpeed[i],
		})
	}

	return samples, nil
}
