// Package geolocate resolves the coordinate the dashboard monitors, preferring
// device geolocation and falling back to a fixed default.
package geolocate

import (
	"context"

	"github.com/rs/zerolog"
)

// Position is a raw device coordinate.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Geolocator abstracts the device geolocation capability.
type Geolocator interface {
	// Supported reports whether the capability exists at all.
	Supported() bool

	// Current requests a one-shot position. The platform's own default
	// timeout applies; no override is passed.
	Current(ctx context.Context) (Position, error)
}

// Fixed is a Geolocator that always reports one position. The daemon has no
// device positioning of its own, so deployments can pin the coordinate via
// configuration; without one the resolver uses the fallback.
type Fixed struct {
	Position Position
}

// Supported always reports true.
func (f Fixed) Supported() bool { return true }

// Current returns the configured position.
func (f Fixed) Current(_ context.Context) (Position, error) {
	return f.Position, nil
}

// Location is a resolved coordinate with a display name.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Fallback is the fixed location used when geolocation is unavailable,
// denied, or fails.
var Fallback = Location{
	Latitude:  40.7128,
	Longitude: -74.0060,
	Name:      "New York City",
}

// Resolver resolves the initial location once at session start. Denial and
// failure are expected outcomes, not errors: Resolve never fails.
type Resolver struct {
	geolocator Geolocator
	logger     zerolog.Logger
}

// NewResolver creates a resolver over the given geolocator.
func NewResolver(geolocator Geolocator, logger zerolog.Logger) *Resolver {
	return &Resolver{geolocator: geolocator, logger: logger}
}

// Resolve returns the device position when available, the fallback otherwise.
// It is also the explicit re-resolution path: a user who denied permission at
// session start can trigger it again after granting access.
func (r *Resolver) Resolve(ctx context.Context) Location {
	if r.geolocator == nil || !r.geolocator.Supported() {
		r.logger.Debug().Msg("geolocation unsupported, using fallback location")
		return Fallback
	}

	pos, err := r.geolocator.Current(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("geolocation failed, using fallback location")
		return Fallback
	}

	return Location{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Name:      "Your Location",
	}
}
