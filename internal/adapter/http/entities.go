package httpadapter

import (
	"net/http"
	"strconv"
)

// networkID parses the optional network_id query parameter. Zero means
// unscoped; a malformed value reports false after writing HTTP 400.
func (h *Handler) networkID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("network_id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		http.Error(w, "invalid network_id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) handleNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.data.Networks(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, networks)
}

func (h *Handler) handleAdvertisers(w http.ResponseWriter, r *http.Request) {
	networkID, ok := h.networkID(w, r)
	if !ok {
		return
	}
	advertisers, err := h.data.Advertisers(r.Context(), networkID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, advertisers)
}

func (h *Handler) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	networkID, ok := h.networkID(w, r)
	if !ok {
		return
	}
	campaigns, err := h.data.Campaigns(r.Context(), networkID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) handleAdvertisements(w http.ResponseWriter, r *http.Request) {
	networkID, ok := h.networkID(w, r)
	if !ok {
		return
	}
	ads, err := h.data.Advertisements(r.Context(), networkID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ads)
}

func (h *Handler) handleZones(w http.ResponseWriter, r *http.Request) {
	networkID, ok := h.networkID(w, r)
	if !ok {
		return
	}
	zones, err := h.data.Zones(r.Context(), networkID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, zones)
}

func (h *Handler) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	networkID, ok := h.networkID(w, r)
	if !ok {
		return
	}
	summary, err := h.data.DashboardSummary(r.Context(), networkID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
