package handlers

import (
	"net/http"

	"github.com/eshaffer321/settlement-recon/internal/api/dto"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
)

// HealthHandler reports liveness plus the reconcile limits a client needs
// before uploading: whether runs are recorded and the per-dataset row limit.
type HealthHandler struct {
	*Base
}

// NewHealthHandler creates a health handler. svc may be nil for a bare
// liveness probe.
func NewHealthHandler(svc *service.ReconcileService) *HealthHandler {
	return &HealthHandler{Base: NewBase(svc)}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		recording bool
		maxRows   int
	)
	if h.svc != nil {
		recording = h.svc.Recording()
		maxRows = h.svc.MaxRows()
	}
	h.WriteJSON(w, http.StatusOK, dto.NewHealthResponse(recording, maxRows))
}
