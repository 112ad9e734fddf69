package openmeteo

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/kelvins/geocoder"
)

// Geocode resolves a free-text city name to coordinates using the Open-Meteo
// geocoding API; the first result wins. Failure is signaled through the second
// return value rather than an error: callers must check it before fetching
// observations. When a Google API key is configured, unresolved cities get one
// more chance through that geocoder.
func (c *Client) Geocode(ctx context.Context, city string) (Coordinates, bool) {
	values := url.Values{}
	values.Set("name", city)
	u := fmt.Sprintf("%s?%s", c.cfg.GeocodingURL, values.Encode())

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}

	if err := c.getJSON(ctx, u, &payload); err != nil {
		log.Printf("geocoding failed for %q: %v", city, err)
		return c.geocodeFallback(city)
	}
	if len(payload.Results) == 0 {
		return c.geocodeFallback(city)
	}

	return Coordinates{
		Latitude:  payload.Results[0].Latitude,
		Longitude: payload.Results[0].Longitude,
	}, true
}

func (c *Client) geocodeFallback(city string) (Coordinates, bool) {
	if c.cfg.GoogleAPIKey == "" {
		return Coordinates{}, false
	}

	geocoder.ApiKey = c.cfg.GoogleAPIKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		log.Printf("google geocoding fallback failed for %q: %v", city, err)
		return Coordinates{}, false
	}

	return Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, true
}
