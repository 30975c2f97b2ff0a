package geolocate_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/clearskies/clearskies/internal/geolocate"
)

// mockGeolocator simulates the device geolocation capability.
type mockGeolocator struct {
	supported bool
	pos       geolocate.Position
	err       error
}

func (m *mockGeolocator) Supported() bool { return m.supported }

func (m *mockGeolocator) Current(_ context.Context) (geolocate.Position, error) {
	if m.err != nil {
		return geolocate.Position{}, m.err
	}
	return m.pos, nil
}

func TestResolve_Unsupported(t *testing.T) {
	r := geolocate.NewResolver(&mockGeolocator{supported: false}, zerolog.New(io.Discard))

	loc := r.Resolve(context.Background())
	assert.Equal(t, geolocate.Fallback, loc)
	assert.Equal(t, 40.7128, loc.Latitude)
	assert.Equal(t, -74.0060, loc.Longitude)
	assert.Equal(t, "New York City", loc.Name)
}

func TestResolve_NilGeolocator(t *testing.T) {
	r := geolocate.NewResolver(nil, zerolog.New(io.Discard))

	assert.Equal(t, geolocate.Fallback, r.Resolve(context.Background()))
}

func TestResolve_Denied(t *testing.T) {
	// Permission denial is an expected outcome: Resolve falls back, it
	// never fails.
	geo := &mockGeolocator{supported: true, err: errors.New("permission denied")}
	r := geolocate.NewResolver(geo, zerolog.New(io.Discard))

	assert.Equal(t, geolocate.Fallback, r.Resolve(context.Background()))
}

func TestResolve_Success(t *testing.T) {
	geo := &mockGeolocator{
		supported: true,
		pos:       geolocate.Position{Latitude: 34.0522, Longitude: -118.2437},
	}
	r := geolocate.NewResolver(geo, zerolog.New(io.Discard))

	loc := r.Resolve(context.Background())
	assert.Equal(t, 34.0522, loc.Latitude)
	assert.Equal(t, -118.2437, loc.Longitude)
	assert.Equal(t, "Your Location", loc.Name)
}

func TestFixedGeolocator(t *testing.T) {
	fixed := geolocate.Fixed{Position: geolocate.Position{Latitude: 1, Longitude: 2}}
	assert.True(t, fixed.Supported())

	pos, err := fixed.Current(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, geolocate.Position{Latitude: 1, Longitude: 2}, pos)
}
