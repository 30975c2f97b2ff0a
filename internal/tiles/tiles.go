// Package tiles resolves satellite composite dates and builds WMTS tile URLs.
// Everything here is pure; callers inject "now".
package tiles

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Resolver errors.
var (
	ErrUnknownLayer   = errors.New("unknown tile layer")
	ErrInvalidTileRef = errors.New("invalid tile reference")
)

// Layer identifies a satellite imagery layer.
type Layer string

const (
	LayerTrueColor   Layer = "truecolor"
	LayerAerosol     Layer = "aerosol"
	LayerNO2         Layer = "no2"
	LayerFires       Layer = "fires"
	LayerLandSurface Layer = "landsurface"
)

// Per-layer WMTS URL templates. Placeholders: {date}, {z}, {y}, {x}.
var layerTemplates = map[Layer]string{
	LayerTrueColor:   "https://gibs.earthdata.nasa.gov/wmts/epsg3857/best/MODIS_Terra_CorrectedReflectance_TrueColor/default/{date}/GoogleMapsCompatible_Level9/{z}/{y}/{x}.jpg",
	LayerAerosol:     "https://gibs.earthdata.nasa.gov/wmts/epsg3857/best/MODIS_Combined_Value_Added_AOD/default/{date}/GoogleMapsCompatible_Level6/{z}/{y}/{x}.png",
	LayerNO2:         "https://gibs.earthdata.nasa.gov/wmts/epsg3857/best/OMI_Nitrogen_Dioxide_Tropo_Column/default/{date}/GoogleMapsCompatible_Level6/{z}/{y}/{x}.png",
	LayerFires:       "https://gibs.earthdata.nasa.gov/wmts/epsg3857/best/MODIS_Terra_Thermal_Anomalies_All/default/{date}/GoogleMapsCompatible_Level9/{z}/{y}/{x}.png",
	LayerLandSurface: "https://gibs.earthdata.nasa.gov/wmts/epsg3857/best/MODIS_Terra_Land_Surface_Temp_Day/default/{date}/GoogleMapsCompatible_Level7/{z}/{y}/{x}.png",
}

// CompositeDate returns the most recent calendar day for which composite
// tiles are guaranteed complete: the day before now's calendar day. The
// imagery provider needs a multi-hour processing lag, and same-day tiles are
// frequently incomplete. Formatted as YYYY-MM-DD.
func CompositeDate(now time.Time) string {
	return now.AddDate(0, 0, -1).Format("2006-01-02")
}

// BuildTileURL substitutes date and tile coordinates into the layer's URL
// template. Negative zoom or tile indices are rejected; no network I/O occurs.
func BuildTileURL(layer Layer, date string, z, x, y int) (string, error) {
	template, ok := layerTemplates[layer]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}

	if z < 0 || x < 0 || y < 0 {
		return "", fmt.Errorf("%w: z=%d x=%d y=%d", ErrInvalidTileRef, z, x, y)
	}

	r := strings.NewReplacer(
		"{date}", date,
		"{z}", fmt.Sprintf("%d", z),
		"{y}", fmt.Sprintf("%d", y),
		"{x}", fmt.Sprintf("%d", x),
	)
	return r.Replace(template), nil
}

// TileTemplate returns the raw URL template for layer with the composite date
// for now filled in, leaving {z}/{y}/{x} for the map renderer to substitute.
func TileTemplate(layer Layer, now time.Time) (string, error) {
	template, ok := layerTemplates[layer]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	return strings.Replace(template, "{date}", CompositeDate(now), 1), nil
}

// Layers returns all known layer ids.
func Layers() []Layer {
	return []Layer{LayerTrueColor, LayerAerosol, LayerNO2, LayerFires, LayerLandSurface}
}
