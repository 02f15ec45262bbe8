package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"adboard/internal/core/port"
)

type errorResponse struct {
	Error       string   `json:"error"`
	ActiveSyncs []string `json:"activeSyncs,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps service errors onto HTTP statuses. Sync conflicts carry
// the held guard scopes so clients can tell what is busy; upstream
// failures expose only their category, never internal detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var conflict *port.SyncConflictError
	if errors.As(err, &conflict) {
		h.writeJSON(w, http.StatusConflict, errorResponse{
			Error:       "sync already in progress",
			ActiveSyncs: h.syncSvc.ActiveScopes(),
		})
		return
	}
	if errors.Is(err, port.ErrBootstrapInProgress) {
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}

	var upstream *port.UpstreamError
	if errors.As(err, &upstream) {
		status := http.StatusBadGateway
		switch upstream.Category {
		case port.UpstreamAuth:
			status = http.StatusUnauthorized
		case port.UpstreamRateLimited:
			status = http.StatusTooManyRequests
		case port.UpstreamTimeout:
			status = http.StatusGatewayTimeout
		}
		h.writeJSON(w, status, errorResponse{Error: "upstream " + string(upstream.Category)})
		return
	}

	h.logger.Error("request failed", slog.Any("error", err))
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
