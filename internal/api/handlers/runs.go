package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/settlement-recon/internal/adapters/spreadsheet"
	"github.com/eshaffer321/settlement-recon/internal/api/dto"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
)

// RunsHandler handles run history requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *service.ReconcileService) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(svc),
	}
}

// List handles GET /api/runs - returns recent runs without result tables.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", dto.DefaultRunListParams().Limit)

	runs, err := h.svc.ListRuns(limit)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, dto.NewRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run with its result table.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.svc.GetRun(id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewRunResponse(run))
}

// Export handles GET /api/runs/{id}/export?format=csv|xlsx.
func (h *RunsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	format := spreadsheet.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = spreadsheet.FormatCSV
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("format must be csv or xlsx"))
		return
	}

	// Buffer so a failed export can still produce a JSON error
	var buf bytes.Buffer
	err := h.svc.ExportRun(id, format, &buf)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reconciliation-%s.%s"`, id, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

var exportContentTypes = map[spreadsheet.Format]string{
	spreadsheet.FormatCSV:  "text/csv",
	spreadsheet.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}
