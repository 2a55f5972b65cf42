package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/eshaffer321/settlement-recon/internal/api/dto"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

// Base holds the reconcile service shared by the reconcile and run handlers.
type Base struct {
	svc *service.ReconcileService
}

// NewBase creates a base handler over the reconcile service.
func NewBase(svc *service.ReconcileService) *Base {
	return &Base{svc: svc}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps a reconcile service error to its API response:
// unknown runs are 404, oversized datasets 413, anything else 500.
func (b *Base) WriteServiceError(w http.ResponseWriter, err error) {
	var sizeErr *reconcile.SizeError
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
	case errors.As(err, &sizeErr):
		b.WriteError(w, http.StatusRequestEntityTooLarge, dto.PayloadTooLargeError(sizeErr.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
