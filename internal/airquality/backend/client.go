// Package backend provides the HTTP client for the dashboard backend's
// air-quality endpoints.
package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/clearskies/clearskies/internal/airquality"
)

// API abstracts the shared backend client.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Client fetches air-quality data through the shared API client.
type Client struct {
	api API
}

// NewClient creates a backend client.
func NewClient(api API) *Client {
	return &Client{api: api}
}

// Wire types for the backend's JSON envelope.

type currentEnvelope struct {
	Data currentData `json:"data"`
}

type currentData struct {
	AQI        int                   `json:"aqi"`
	Category   string                `json:"category"`
	Pollutants airquality.Pollutants `json:"pollutants"`
	Latitude   float64               `json:"latitude"`
	Longitude  float64               `json:"longitude"`
	Timestamp  time.Time             `json:"timestamp"`
}

type forecastEnvelope struct {
	Data []seriesPoint `json:"data"`
}

type trendsEnvelope struct {
	Data []seriesPoint `json:"data"`
}

type seriesPoint struct {
	Time time.Time `json:"time"`
	AQI  int       `json:"aqi"`
}

type mapDataEnvelope struct {
	Data []mapPoint `json:"data"`
}

type mapPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AQI       int       `json:"aqi"`
	Region    string    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
}

// Current fetches the current reading near a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon, tolerance float64) (*airquality.Snapshot, error) {
	query := coordQuery(lat, lon, tolerance)

	var env currentEnvelope
	if err := c.api.Get(ctx, "/api/air-quality/current", query, &env); err != nil {
		return nil, fmt.Errorf("fetch current reading: %w", err)
	}

	return &airquality.Snapshot{
		AQI:        env.Data.AQI,
		Category:   env.Data.Category,
		Pollutants: env.Data.Pollutants,
		Latitude:   env.Data.Latitude,
		Longitude:  env.Data.Longitude,
		Timestamp:  env.Data.Timestamp,
	}, nil
}

// Forecast fetches the forward window near a coordinate.
func (c *Client) Forecast(ctx context.Context, lat, lon, tolerance float64, hours int) ([]airquality.ForecastPoint, error) {
	query := coordQuery(lat, lon, tolerance)
	query.Set("hours", strconv.Itoa(hours))

	var env forecastEnvelope
	if err := c.api.Get(ctx, "/api/air-quality/forecast", query, &env); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	points := make([]airquality.ForecastPoint, 0, len(env.Data))
	for _, p := range env.Data {
		points = append(points, airquality.ForecastPoint{Time: p.Time, AQI: p.AQI})
	}
	return points, nil
}

// Trends fetches the backward window near a coordinate.
func (c *Client) Trends(ctx context.Context, lat, lon, tolerance float64, hours int) ([]airquality.TrendPoint, error) {
	query := coordQuery(lat, lon, tolerance)
	query.Set("hours", strconv.Itoa(hours))

	var env trendsEnvelope
	if err := c.api.Get(ctx, "/api/air-quality/trends", query, &env); err != nil {
		return nil, fmt.Errorf("fetch trends: %w", err)
	}

	points := make([]airquality.TrendPoint, 0, len(env.Data))
	for _, p := range env.Data {
		points = append(points, airquality.TrendPoint{Time: p.Time, AQI: p.AQI})
	}
	return points, nil
}

// MapData fetches the bounded global point list for the map overview.
func (c *Client) MapData(ctx context.Context, limit, minAQI, maxAQI int) ([]airquality.MapDataPoint, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("minAQI", strconv.Itoa(minAQI))
	query.Set("maxAQI", strconv.Itoa(maxAQI))

	var env mapDataEnvelope
	if err := c.api.Get(ctx, "/api/air-quality/map-data", query, &env); err != nil {
		return nil, fmt.Errorf("fetch map data: %w", err)
	}

	points := make([]airquality.MapDataPoint, 0, len(env.Data))
	for _, p := range env.Data {
		points = append(points, airquality.MapDataPoint{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			AQI:       p.AQI,
			Region:    p.Region,
			Timestamp: p.Timestamp,
		})
	}
	return points, nil
}

func coordQuery(lat, lon, tolerance float64) url.Values {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("tolerance", strconv.FormatFloat(tolerance, 'f', -1, 64))
	return query
}
