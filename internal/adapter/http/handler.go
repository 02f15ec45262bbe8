package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adboard/internal/core/port"
)

// Pinger reports whether the backing store is usable.
type Pinger interface {
	Ping() error
}

// Handler contains dependencies and routes. It is an inbound adapter for
// HTTP. It serves entity reads through the DataService, sync management
// through the SyncService and bootstrap state through the InitService;
// routes are registered on a chi.Router for convenient method handling.
type Handler struct {
	data    port.DataService
	syncSvc port.SyncService
	init    port.InitService
	ledger  port.SyncLedger
	pinger  Pinger
	logger  *slog.Logger
	router  chi.Router
}

// NewHandler creates a handler with all routes configured. pinger may be
// nil, in which case the health endpoint only reports liveness.
func NewHandler(data port.DataService, syncSvc port.SyncService, init port.InitService, ledger port.SyncLedger, pinger Pinger, logger *slog.Logger) *Handler {
	h := &Handler{data: data, syncSvc: syncSvc, init: init, ledger: ledger, pinger: pinger, logger: logger}
	r := chi.NewRouter()

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/networks", h.handleNetworks)
		r.Get("/advertisers", h.handleAdvertisers)
		r.Get("/campaigns", h.handleCampaigns)
		r.Get("/advertisements", h.handleAdvertisements)
		r.Get("/zones", h.handleZones)
		r.Get("/dashboard/summary", h.handleDashboardSummary)

		r.Post("/sync/trigger", h.handleSyncTrigger)
		r.Get("/sync/trigger", h.handleSyncDiscovery)
		r.Get("/sync/status", h.handleSyncStatus)
		r.Post("/sync/initialize", h.handleInitialize)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(); err != nil {
			h.logger.Error("store ping failed", slog.Any("error", err))
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
