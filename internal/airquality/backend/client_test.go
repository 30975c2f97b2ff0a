package backend_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/airquality/backend"
)

// mockAPI records the request and plays back a canned JSON document.
type mockAPI struct {
	lastPath  string
	lastQuery url.Values
	payload   string
	err       error
}

func (m *mockAPI) Get(_ context.Context, path string, query url.Values, out any) error {
	m.lastPath = path
	m.lastQuery = query
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.payload), out)
}

func TestClient_Current(t *testing.T) {
	api := &mockAPI{payload: `{
		"data": {
			"aqi": 87,
			"category": "Moderate",
			"pollutants": {"pm25": 21.4, "pm10": 35.0, "o3": 51.2, "no2": 12.9, "so2": 2.1, "co": 0.4},
			"latitude": 40.7128,
			"longitude": -74.006,
			"timestamp": "2026-08-30T12:00:00Z"
		}
	}`}
	client := backend.NewClient(api)

	snap, err := client.Current(context.Background(), 40.7128, -74.006, 0.5)
	require.NoError(t, err)

	assert.Equal(t, "/api/air-quality/current", api.lastPath)
	assert.Equal(t, "40.7128", api.lastQuery.Get("lat"))
	assert.Equal(t, "-74.006", api.lastQuery.Get("lon"))
	assert.Equal(t, "0.5", api.lastQuery.Get("tolerance"))

	assert.Equal(t, 87, snap.AQI)
	assert.Equal(t, "Moderate", snap.Category)
	assert.Equal(t, 21.4, snap.Pollutants.PM25)
}

func TestClient_Forecast(t *testing.T) {
	api := &mockAPI{payload: `{
		"data": [
			{"time": "2026-08-30T13:00:00Z", "aqi": 90},
			{"time": "2026-08-30T14:00:00Z", "aqi": 95}
		]
	}`}
	client := backend.NewClient(api)

	points, err := client.Forecast(context.Background(), 1, 2, 0.5, 24)
	require.NoError(t, err)

	assert.Equal(t, "/api/air-quality/forecast", api.lastPath)
	assert.Equal(t, "24", api.lastQuery.Get("hours"))
	require.Len(t, points, 2)
	assert.Equal(t, 90, points[0].AQI)
	assert.Equal(t, 95, points[1].AQI)
}

func TestClient_Trends(t *testing.T) {
	api := &mockAPI{payload: `{
		"data": [
			{"time": "2026-08-30T11:00:00Z", "aqi": 80}
		]
	}`}
	client := backend.NewClient(api)

	points, err := client.Trends(context.Background(), 1, 2, 0.5, 12)
	require.NoError(t, err)

	assert.Equal(t, "/api/air-quality/trends", api.lastPath)
	assert.Equal(t, "12", api.lastQuery.Get("hours"))
	require.Len(t, points, 1)
	assert.Equal(t, 80, points[0].AQI)
}

func TestClient_MapData(t *testing.T) {
	api := &mockAPI{payload: `{
		"data": [
			{"latitude": 34.05, "longitude": -118.24, "aqi": 120, "region": "West", "timestamp": "2026-08-30T12:00:00Z"},
			{"latitude": 41.88, "longitude": -87.63, "aqi": 60, "region": "Midwest", "timestamp": "2026-08-30T12:00:00Z"}
		]
	}`}
	client := backend.NewClient(api)

	points, err := client.MapData(context.Background(), 100, 0, 500)
	require.NoError(t, err)

	assert.Equal(t, "/api/air-quality/map-data", api.lastPath)
	assert.Equal(t, "100", api.lastQuery.Get("limit"))
	assert.Equal(t, "0", api.lastQuery.Get("minAQI"))
	assert.Equal(t, "500", api.lastQuery.Get("maxAQI"))
	require.Len(t, points, 2)
	assert.Equal(t, "West", points[0].Region)
	assert.Equal(t, 120, points[0].AQI)
}

func TestClient_PropagatesErrors(t *testing.T) {
	api := &mockAPI{err: assert.AnError}
	client := backend.NewClient(api)

	_, err := client.Current(context.Background(), 1, 2, 0.5)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = client.Forecast(context.Background(), 1, 2, 0.5, 24)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = client.Trends(context.Background(), 1, 2, 0.5, 24)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = client.MapData(context.Background(), 10, 0, 500)
	assert.ErrorIs(t, err, assert.AnError)
}
