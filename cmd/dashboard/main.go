// Package main provides the entrypoint for the clearskies sync daemon.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/airquality/backend"
	"github.com/clearskies/clearskies/internal/apiclient"
	"github.com/clearskies/clearskies/internal/assistant"
	"github.com/clearskies/clearskies/internal/config"
	"github.com/clearskies/clearskies/internal/geolocate"
	"github.com/clearskies/clearskies/internal/notifications"
	"github.com/clearskies/clearskies/internal/session"
	"github.com/clearskies/clearskies/internal/simulation"
	"github.com/clearskies/clearskies/internal/statusapi"
	"github.com/clearskies/clearskies/internal/telemetry"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	const serviceName = "clearskies-dashboard"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		log = log.Level(level)
	}

	log.Info().Str("base_url", cfg.API.BaseURL).Msg("starting clearskies sync daemon")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Version:     Version,
		Endpoint:    cfg.Telemetry.Endpoint,
		Enabled:     cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down telemetry")
		}
	}()

	// Local persistence: tokens, cached profiles and notification read state
	// survive restarts through this store.
	var store session.Store
	sqliteStore, err := session.NewSQLiteStore(cfg.Session.DBPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Session.DBPath).
			Msg("falling back to in-memory session store")
		store = session.NewMemoryStore()
	} else {
		defer sqliteStore.Close()
		store = sqliteStore
	}

	sess := session.New(store, session.AccountUser)

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Session: sess,
		Timeout: cfg.API.Timeout,
		Logger:  log,
		OnUnauthorized: func(kind session.AccountKind) {
			// The dashboard shell watches this and navigates to the login
			// route matching the account kind.
			log.Warn().Str("account_kind", string(kind)).Msg("session expired, login required")
		},
	})

	engine := airquality.NewEngine(airquality.EngineConfig{
		Backend:         backend.NewClient(api),
		Logger:          log,
		RefreshInterval: cfg.Refresh.Interval,
		Tolerance:       cfg.Refresh.Tolerance,
		ForecastHours:   cfg.Refresh.ForecastHours,
		TrendHours:      cfg.Refresh.TrendHours,
		MapLimit:        cfg.Refresh.MapLimit,
	})
	defer engine.Close()

	resolver := geolocate.NewResolver(deviceGeolocator(), log)
	resolve := func(ctx context.Context) airquality.Location {
		loc := resolver.Resolve(ctx)
		return airquality.Location{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Name:      loc.Name,
		}
	}

	notifier := notifications.NewEngine(notifications.EngineConfig{
		Feed:         notifications.NewHTTPFeed(api),
		Store:        store,
		Logger:       log,
		PollInterval: cfg.Notifications.PollInterval,
	})
	defer notifier.Close()

	if userID := sess.UserID(); userID != "" {
		notifier.StartPolling(userID)
		log.Info().Str("user_id", userID).Msg("notification polling started")
	}

	sequencer := simulation.NewSequencer(simulation.SequencerConfig{Logger: log})
	defer sequencer.Stop()

	chat := assistant.NewSession(assistant.SessionConfig{
		Client: assistant.NewClient(api),
		Logger: log,
	})
	defer chat.Wait()

	// Initial sequence: resolve the starting location, then set it; the map
	// overview refresh runs independently and never blocks it.
	engine.Bootstrap(ctx, resolve)

	router := statusapi.NewRouter(statusapi.RouterConfig{
		Version:         Version,
		Logger:          log,
		AirQuality:      engine,
		Notifications:   notifier,
		Simulation:      sequencer,
		Assistant:       chat,
		ResolveLocation: resolve,
	})

	server := &http.Server{
		Addr:         cfg.Status.Host + ":" + strconv.Itoa(cfg.Status.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("status API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("status API error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status API forced to shut down")
	}

	log.Info().Msg("stopped")
}

// deviceGeolocator builds the daemon's positioning capability. Deployments
// pin a coordinate via DEVICE_LAT/DEVICE_LON; without one, geolocation is
// unsupported and the resolver falls back to the default location.
func deviceGeolocator() geolocate.Geolocator {
	latStr, lonStr := os.Getenv("DEVICE_LAT"), os.Getenv("DEVICE_LON")
	if latStr == "" || lonStr == "" {
		return nil
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		return nil
	}

	return geolocate.Fixed{Position: geolocate.Position{Latitude: lat, Longitude: lon}}
}
