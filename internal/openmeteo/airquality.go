package openmeteo

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/earthdata-action/pm25-predictor/internal/features"
)

// FetchPM25 retrieves the hourly PM2.5 series for the given coordinates and
// inclusive date range. A payload without the expected hourly arrays yields an
// empty series and no error; only transport and HTTP failures are errors.
func (c *Client) FetchPM25(ctx context.Context, coords Coordinates, start, end time.Time) ([]features.PM25Sample, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	values.Set("start_date", start.Format("2006-01-02"))
	values.Set("end_date", end.Format("2006-01-02"))
	values.Set("hourly", "pm2_5")

	u := fmt.Sprintf("%s?%s", c.cfg.AirQualityURL, values.Encode())

	var payload struct {
		Hourly struct {
			Time []string   `json:"time"`
			PM25 []*float64 `json:"pm2_5"`
		} `json:"hourly"`
	}

	if err := c.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	if len(payload.Hourly.Time) == 0 || len(payload.Hourly.PM25) != len(payload.Hourly.Time) {
		return nil, nil
	}

	samples := make([]features.PM25Sample, 0, len(payload.Hourly.Time))
	for i, raw := range payload.Hourly.Time {
		if payload.Hourly.PM25[i] == nil {
			continue
		}
		ts, err := time.ParseInLocation(hourlyTimeLayout, raw, time.UTC)
		if err != nil {
			log.Printf("skipping pm2.5 sample with bad timestamp %q: %v", raw, err)
			continue
		}
		samples = append(samples, features.PM25Sample{
			Timestamp: ts,
			PM25:      *payload.Hourly.PM25[i],
		})
	}

	return samples, nil
}
