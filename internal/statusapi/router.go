// Package statusapi exposes the daemon's engine state and controls to the
// dashboard shell over a small local HTTP API.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/assistant"
	"github.com/clearskies/clearskies/internal/notifications"
	"github.com/clearskies/clearskies/internal/simulation"
	"github.com/clearskies/clearskies/internal/tiles"
)

// RouterConfig holds configuration for the status router.
type RouterConfig struct {
	Version       string
	Logger        zerolog.Logger
	AirQuality    *airquality.Engine
	Notifications *notifications.Engine
	Simulation    *simulation.Sequencer
	Assistant     *assistant.Session

	// ResolveLocation is the explicit re-resolution action: it re-runs
	// device geolocation (or the fallback) and returns the result.
	ResolveLocation func(ctx context.Context) airquality.Location
}

// NewRouter creates the local router. Everything it serves operates on
// in-memory engine state, so a generous IP rate limit is enough.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.LimitByIP(100, time.Minute))

	h := &handlers{
		version:         cfg.Version,
		airQuality:      cfg.AirQuality,
		notifications:   cfg.Notifications,
		simulation:      cfg.Simulation,
		assistant:       cfg.Assistant,
		resolveLocation: cfg.ResolveLocation,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", h.health)
		r.Get("/status", h.status)
		r.Get("/tiles/layers", h.tileLayers)

		r.Post("/location", h.setLocation)
		r.Post("/location/resolve", h.resolve)
		r.Post("/refresh", h.refresh)

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/read-all", h.markAllRead)
			r.Delete("/", h.clearAllNotifications)
			r.Post("/{id}/read", h.markRead)
			r.Delete("/{id}", h.clearNotification)
		})

		r.Route("/simulation", func(r chi.Router) {
			r.Post("/start", h.startSimulation)
			r.Post("/stop", h.stopSimulation)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", h.transcript)
			r.Post("/message", h.sendMessage)
		})
	})

	return r
}

type handlers struct {
	version         string
	airQuality      *airquality.Engine
	notifications   *notifications.Engine
	simulation      *simulation.Sequencer
	assistant       *assistant.Session
	resolveLocation func(ctx context.Context) airquality.Location
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Version: h.version})
}

type statusResponse struct {
	State         airquality.State             `json:"state"`
	Location      *airquality.Location         `json:"location,omitempty"`
	Current       *airquality.Snapshot         `json:"current,omitempty"`
	Forecast      []airquality.ForecastPoint   `json:"forecast"`
	Trends        []airquality.TrendPoint      `json:"trends"`
	MapData       []airquality.MapDataPoint    `json:"mapData"`
	Error         string                       `json:"error,omitempty"`
	Unread        int                          `json:"unreadNotifications"`
	Notifications []notifications.Notification `json:"notifications"`
	Simulation    simulationStatus             `json:"simulation"`
}

type simulationStatus struct {
	Running bool               `json:"running"`
	Alerts  []simulation.Alert `json:"alerts"`
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	view := h.airQuality.Snapshot()

	writeJSON(w, r, http.StatusOK, statusResponse{
		State:         view.State,
		Location:      view.Location,
		Current:       view.Current,
		Forecast:      view.Forecast,
		Trends:        view.Trends,
		MapData:       view.MapData,
		Error:         view.Err,
		Unread:        h.notifications.UnreadCount(),
		Notifications: h.notifications.Notifications(),
		Simulation: simulationStatus{
			Running: h.simulation.Running(),
			Alerts:  h.simulation.Alerts(),
		},
	})
}

type tileLayersResponse struct {
	Date   string   `json:"date"`
	Layers []string `json:"layers"`
}

func (h *handlers) tileLayers(w http.ResponseWriter, r *http.Request) {
	layers := tiles.Layers()
	ids := make([]string, 0, len(layers))
	for _, l := range layers {
		ids = append(ids, string(l))
	}

	writeJSON(w, r, http.StatusOK, tileLayersResponse{
		Date:   tiles.CompositeDate(time.Now()),
		Layers: ids,
	})
}

func (h *handlers) setLocation(w http.ResponseWriter, r *http.Request) {
	var loc airquality.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid location body")
		return
	}

	h.airQuality.SetLocation(r.Context(), loc)
	writeJSON(w, r, http.StatusAccepted, loc)
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	loc := h.resolveLocation(r.Context())
	h.airQuality.SetLocation(r.Context(), loc)
	writeJSON(w, r, http.StatusAccepted, loc)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	h.airQuality.RefreshData(r.Context())
	go h.airQuality.RefreshMapData(context.WithoutCancel(r.Context()))
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) markRead(w http.ResponseWriter, r *http.Request) {
	h.notifications.MarkAsRead(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	h.notifications.MarkAllAsRead()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) clearNotification(w http.ResponseWriter, r *http.Request) {
	h.notifications.ClearNotification(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) clearAllNotifications(w http.ResponseWriter, r *http.Request) {
	h.notifications.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) startSimulation(w http.ResponseWriter, r *http.Request) {
	h.simulation.Start()
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) stopSimulation(w http.ResponseWriter, r *http.Request) {
	h.simulation.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) transcript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.assistant.Messages())
}

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

type chatAccepted struct {
	ID string `json:"id"`
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid chat body")
		return
	}

	id, err := h.assistant.Send(context.WithoutCancel(r.Context()), req.Message, req.Context)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, r, http.StatusBadRequest, "message is empty")
		return
	case errors.Is(err, assistant.ErrBusy):
		writeError(w, r, http.StatusConflict, "a message is already in flight")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "send failed")
		return
	}

	writeJSON(w, r, http.StatusAccepted, chatAccepted{ID: id})
}
