package httpadapter

import (
	"net/http"

	"github.com/goccy/go-json"

	"adboard/internal/core/domain"
	"adboard/internal/core/port"
)

// handleSyncTrigger runs a sync on demand. The body is a TriggerRequest;
// an absent type defaults to a full sync. The sync runs to completion
// before responding, so the outcome carries final counts.
func (h *Handler) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	req := port.TriggerRequest{Type: domain.EntityFull}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if req.Type == "" {
		req.Type = domain.EntityFull
	}
	if !req.Type.Valid() {
		http.Error(w, "unknown sync type", http.StatusBadRequest)
		return
	}

	outcome, err := h.syncSvc.Trigger(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, outcome)
}

// handleSyncDiscovery documents the trigger endpoint for clients probing
// it with GET.
func (h *Handler) handleSyncDiscovery(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "POST to this endpoint to trigger a sync",
		"types": []domain.EntityType{
			domain.EntityFull,
			domain.EntityNetworks,
			domain.EntityAdvertisers,
			domain.EntityCampaigns,
			domain.EntityAdvertisements,
			domain.EntityZones,
		},
		"example":      port.TriggerRequest{Type: domain.EntityNetworks},
		"activeScopes": h.syncSvc.ActiveScopes(),
	})
}

type syncStatusResponse struct {
	Initialization *port.InitStatus    `json:"initialization"`
	ActiveScopes   []string            `json:"activeScopes"`
	Active         []domain.SyncRecord `json:"activeSyncs"`
	History        []domain.SyncRecord `json:"history"`
}

// handleSyncStatus reports bootstrap state, currently held sync scopes,
// in-flight ledger records and recent history.
func (h *Handler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.init.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	active, err := h.ledger.Active(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	history, err := h.ledger.History(r.Context(), 10)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, syncStatusResponse{
		Initialization: status,
		ActiveScopes:   h.syncSvc.ActiveScopes(),
		Active:         active,
		History:        history,
	})
}

// handleInitialize forces a bootstrap run regardless of store state.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if err := h.init.ForceInitialization(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	status, err := h.init.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}
