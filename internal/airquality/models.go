// Package airquality owns the current monitoring location and keeps its
// current/forecast/trend datasets synchronized with the backend.
package airquality

import "time"

// State describes the engine's fetch lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateErrored State = "errored"
)

// Location is the coordinate the engine monitors. It is replaced wholesale on
// every SetLocation call and is immutable for the duration of a fetch cycle.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Pollutants holds concentrations in µg/m³ (CO in ppm).
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// Snapshot is the current reading for a location. It is replaced in full on
// every successful fetch and cleared, never partially updated, on failure.
type Snapshot struct {
	AQI        int        `json:"aqi"`
	Category   string     `json:"category"`
	Pollutants Pollutants `json:"pollutants"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ForecastPoint is one step of the forward window from "now".
type ForecastPoint struct {
	Time time.Time `json:"time"`
	AQI  int       `json:"aqi"`
}

// TrendPoint is one step of the backward window from "now".
type TrendPoint struct {
	Time time.Time `json:"time"`
	AQI  int       `json:"aqi"`
}

// MapDataPoint is a region-tagged snapshot for the map overview. The list is
// bounded and independent of the selected location.
type MapDataPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AQI       int       `json:"aqi"`
	Region    string    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
}
