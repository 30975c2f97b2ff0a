package airquality

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Backend is the location-scoped and map-overview data source.
type Backend interface {
	// Current fetches the current reading near a coordinate.
	Current(ctx context.Context, lat, lon, tolerance float64) (*Snapshot, error)

	// Forecast fetches the forward window near a coordinate.
	Forecast(ctx context.Context, lat, lon, tolerance float64, hours int) ([]ForecastPoint, error)

	// Trends fetches the backward window near a coordinate.
	Trends(ctx context.Context, lat, lon, tolerance float64, hours int) ([]TrendPoint, error)

	// MapData fetches the bounded global point list.
	MapData(ctx context.Context, limit, minAQI, maxAQI int) ([]MapDataPoint, error)
}

// EngineConfig holds configuration for the synchronization engine.
type EngineConfig struct {
	// Backend is the data source.
	Backend Backend

	// Logger for engine operations.
	Logger zerolog.Logger

	// RefreshInterval re-runs the fetch cycle while a location is active
	// (default: 5 minutes). Zero disables auto-refresh.
	RefreshInterval time.Duration

	// Tolerance is the search radius passed to the backend (default: 0.5).
	Tolerance float64

	// ForecastHours is the forward window (default: 24).
	ForecastHours int

	// TrendHours is the backward window (default: 24).
	TrendHours int

	// MapLimit bounds the map overview list (default: 100).
	MapLimit int
}

// Engine owns the active location and its datasets. Fetch cycles run
// concurrently with UI reads, so every cycle captures a generation number at
// start and compares it at commit time: a cycle started for a location that
// has since been replaced is discarded, never committed. Last writer wins by
// location identity, not by network completion order.
type Engine struct {
	backend       Backend
	logger        zerolog.Logger
	tolerance     float64
	forecastHours int
	trendHours    int
	mapLimit      int

	mu              sync.Mutex
	refreshInterval time.Duration
	loc             *Location
	gen             uint64
	state           State
	current         *Snapshot
	forecast        []ForecastPoint
	trends          []TrendPoint
	mapData         []MapDataPoint
	errMsg          string
	refreshStop     chan struct{}
	closed          bool

	wg sync.WaitGroup
}

// NewEngine creates a new synchronization engine in the idle state.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Minute
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 0.5
	}
	if cfg.ForecastHours == 0 {
		cfg.ForecastHours = 24
	}
	if cfg.TrendHours == 0 {
		cfg.TrendHours = 24
	}
	if cfg.MapLimit == 0 {
		cfg.MapLimit = 100
	}

	return &Engine{
		backend:         cfg.Backend,
		logger:          cfg.Logger,
		refreshInterval: cfg.RefreshInterval,
		tolerance:       cfg.Tolerance,
		forecastHours:   cfg.ForecastHours,
		trendHours:      cfg.TrendHours,
		mapLimit:        cfg.MapLimit,
		state:           StateIdle,
	}
}

// Bootstrap runs the initial sequence: resolve the starting location, then
// set it; independently, and without waiting on resolution, refresh the map
// overview.
func (e *Engine) Bootstrap(ctx context.Context, resolve func(context.Context) Location) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		loc := resolve(ctx)
		e.SetLocation(ctx, loc)
	}()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.RefreshMapData(ctx)
	}()
}

// SetLocation replaces the active location and starts a fetch cycle for it.
// The location-scoped datasets are cleared immediately so no read can observe
// data for the previous location.
func (e *Engine) SetLocation(ctx context.Context, loc Location) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.loc = &loc
	e.gen++
	gen := e.gen
	e.state = StateLoading
	e.clearDatasetsLocked()
	e.restartTimerLocked()
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Debug().
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Str("name", loc.Name).
		Msg("location set")

	go func() {
		defer e.wg.Done()
		e.runCycle(ctx, gen, loc)
	}()
}

// ClearLocation drops the active location, cancels auto-refresh and returns
// the engine to idle.
func (e *Engine) ClearLocation() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loc = nil
	e.gen++
	e.state = StateIdle
	e.errMsg = ""
	e.clearDatasetsLocked()
	e.restartTimerLocked()
}

// RefreshData re-runs the fetch cycle for the active location. No-op if no
// location is set.
func (e *Engine) RefreshData(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.loc == nil {
		e.mu.Unlock()
		return
	}

	loc := *e.loc
	e.gen++
	gen := e.gen
	e.state = StateLoading
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		e.runCycle(ctx, gen, loc)
	}()
}

// RefreshMapData refreshes the bounded map overview list. The overview is
// best-effort: failures are logged and swallowed so they can never degrade
// the location-scoped view.
func (e *Engine) RefreshMapData(ctx context.Context) {
	points, err := e.backend.MapData(ctx, e.mapLimit, 0, 500)
	if err != nil {
		e.logger.Warn().Err(err).Msg("map data refresh failed")
		return
	}

	if len(points) > e.mapLimit {
		points = points[:e.mapLimit]
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.mapData = points
}

// SetRefreshInterval reconfigures auto-refresh and reschedules the timer.
// Zero disables auto-refresh.
func (e *Engine) SetRefreshInterval(interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refreshInterval = interval
	e.restartTimerLocked()
}

// Close tears the engine down: the auto-refresh timer is cancelled and all
// outstanding cycles are waited for. Cycles still in flight cannot commit
// after Close.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.gen++
	if e.refreshStop != nil {
		close(e.refreshStop)
		e.refreshStop = nil
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// View is a consistent read of the engine's state.
type View struct {
	State    State
	Location *Location
	Current  *Snapshot
	Forecast []ForecastPoint
	Trends   []TrendPoint
	MapData  []MapDataPoint
	Err      string
}

// Snapshot returns a consistent view of the engine state.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:    e.state,
		Current:  e.current,
		Forecast: e.forecast,
		Trends:   e.trends,
		MapData:  e.mapData,
		Err:      e.errMsg,
	}
	if e.loc != nil {
		loc := *e.loc
		v.Location = &loc
	}
	return v
}

// runCycle issues the three location-scoped fetches concurrently and commits
// their results as a unit once all three settle. Partial success is not a
// state: any failure clears all three datasets together.
func (e *Engine) runCycle(ctx context.Context, gen uint64, loc Location) {
	var (
		wg       sync.WaitGroup
		current  *Snapshot
		forecast []ForecastPoint
		trends   []TrendPoint

		errMu    sync.Mutex
		cycleErr error
	)

	record := func(err error) {
		if err == nil {
			return
		}
		errMu.Lock()
		if cycleErr == nil {
			cycleErr = err
		}
		errMu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		current, err = e.backend.Current(ctx, loc.Latitude, loc.Longitude, e.tolerance)
		record(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		forecast, err = e.backend.Forecast(ctx, loc.Latitude, loc.Longitude, e.tolerance, e.forecastHours)
		record(err)
	}()
	go func() {
		defer wg.Done()
		var err error
		trends, err = e.backend.Trends(ctx, loc.Latitude, loc.Longitude, e.tolerance, e.trendHours)
		record(err)
	}()
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		e.logger.Debug().
			Uint64("cycle_gen", gen).
			Uint64("current_gen", e.gen).
			Msg("discarding stale fetch cycle")
		return
	}

	if cycleErr != nil {
		e.clearDatasetsLocked()
		e.state = StateErrored
		e.errMsg = "Failed to load air quality data. Please try again."
		e.logger.Error().Err(cycleErr).
			Str("location", loc.Name).
			Msg("fetch cycle failed")
		return
	}

	e.current = current
	e.forecast = forecast
	e.trends = trends
	e.state = StateReady
	e.errMsg = ""

	e.logger.Debug().
		Str("location", loc.Name).
		Int("forecast_points", len(forecast)).
		Int("trend_points", len(trends)).
		Msg("fetch cycle committed")
}

func (e *Engine) clearDatasetsLocked() {
	e.current = nil
	e.forecast = nil
	e.trends = nil
}

// restartTimerLocked cancels any running auto-refresh timer and starts a new
// one when a location is active and an interval is configured. At most one
// timer goroutine exists at a time.
func (e *Engine) restartTimerLocked() {
	if e.refreshStop != nil {
		close(e.refreshStop)
		e.refreshStop = nil
	}

	if e.closed || e.loc == nil || e.refreshInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	e.refreshStop = stop
	interval := e.refreshInterval

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.RefreshData(context.Background())
			}
		}
	}()
}
