// Package simulation plays back a fixed hazard-scenario alert script on a
// deterministic schedule, with no backend involvement.
package simulation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Tier is the severity tier of a scripted alert.
type Tier string

const (
	TierAdvisory  Tier = "advisory"
	TierWatch     Tier = "watch"
	TierWarning   Tier = "warning"
	TierEmergency Tier = "emergency"
)

// Alert is one played-back script entry.
type Alert struct {
	ID        string    `json:"id"`
	Tier      Tier      `json:"tier"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// scriptEntry is one fixed (tier, message) pair.
type scriptEntry struct {
	tier    Tier
	message string
}

// The wildfire scenario script. Order is fixed; one entry fires every
// interval from start.
var script = []scriptEntry{
	{TierAdvisory, "Satellite imagery detects a thermal anomaly 40 km northwest of the city."},
	{TierWatch, "Wildfire confirmed. Smoke plume drifting toward the metropolitan area."},
	{TierWarning, "Air quality deteriorating rapidly. PM2.5 levels tripled in the last hour."},
	{TierWarning, "AQI has crossed 150 (Unhealthy). Sensitive groups should remain indoors."},
	{TierEmergency, "AQI above 300 (Hazardous). All residents should avoid outdoor activity."},
	{TierEmergency, "Evacuation advisory issued for northwestern districts. Follow local guidance."},
}

// DefaultInterval is the spacing between scripted alerts.
const DefaultInterval = 3 * time.Second

// SequencerConfig holds configuration for the sequencer.
type SequencerConfig struct {
	// Logger for sequencer operations.
	Logger zerolog.Logger

	// Interval between scripted alerts (default: 3 seconds). Configurable
	// for tests only; the scenario spacing is fixed in the product.
	Interval time.Duration
}

// Sequencer schedules the script as a list of cancellable timers. Stop
// cancels every pending timer; callbacks additionally check the running flag
// so a timer that fires during teardown appends nothing.
type Sequencer struct {
	logger   zerolog.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	run     uint64
	alerts  []Alert
	timers  []*time.Timer
}

// NewSequencer creates a stopped sequencer.
func NewSequencer(cfg SequencerConfig) *Sequencer {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	return &Sequencer{
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start begins playback from the top of the script: existing alerts are
// cleared and entry i is scheduled at i*interval from now. No-op when already
// running. Restarting after Stop replays the full script with fresh ids.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	s.run++
	run := s.run
	s.alerts = nil
	s.timers = make([]*time.Timer, 0, len(script))

	for i, entry := range script {
		s.timers = append(s.timers, time.AfterFunc(time.Duration(i)*s.interval, func() {
			s.fire(run, entry)
		}))
	}

	s.logger.Info().Int("entries", len(script)).Msg("simulation started")
}

// Stop halts playback and clears all alerts immediately. Pending timers are
// cancelled; any already mid-fire see a stale run marker and append nothing.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.run++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.alerts = nil

	s.logger.Info().Msg("simulation stopped")
}

// Running reports whether playback is active.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Alerts returns a copy of the alerts appended so far this run.
func (s *Sequencer) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func (s *Sequencer) fire(run uint64, entry scriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A timer from a stopped or superseded run is a no-op.
	if !s.running || run != s.run {
		return
	}

	s.alerts = append(s.alerts, Alert{
		ID:        uuid.NewString(),
		Tier:      entry.tier,
		Message:   entry.message,
		Timestamp: time.Now(),
	})
}
