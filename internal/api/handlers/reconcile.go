package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/eshaffer321/settlement-recon/internal/adapters/spreadsheet"
	"github.com/eshaffer321/settlement-recon/internal/api/dto"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// DefaultMaxUploadBytes bounds a reconcile request body.
const DefaultMaxUploadBytes int64 = 20 << 20

// multipartMemory is how much of a multipart form is held in memory.
const multipartMemory = 8 << 20

// ReconcileHandler handles reconciliation requests.
type ReconcileHandler struct {
	*Base
	maxBytes int64
	logger   *slog.Logger
}

// NewReconcileHandler creates a new reconcile handler. maxBytes <= 0 uses
// DefaultMaxUploadBytes.
func NewReconcileHandler(svc *service.ReconcileService, maxBytes int64, logger *slog.Logger) *ReconcileHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileHandler{
		Base:     NewBase(svc),
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Reconcile handles POST /api/reconcile. The body is either JSON tables or a
// multipart upload with "hub" and "sales" files.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var (
		req service.Request
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, err = h.fromMultipart(r)
	} else {
		req, err = h.fromJSON(r)
	}
	if err != nil {
		h.writeRequestError(w, err)
		return
	}

	outcome, err := h.svc.Reconcile(r.Context(), req)
	if err != nil {
		if !errors.Is(err, reconcile.ErrTooManyRows) {
			h.logger.Error("Reconciliation failed", "error", err)
		}
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewReconcileResponse(outcome.Run.ID, outcome.Saved, outcome.Result))
}

func (h *ReconcileHandler) fromJSON(r *http.Request) (service.Request, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var body dto.ReconcileRequest
	if err := decoder.Decode(&body); err != nil {
		return service.Request{}, &requestError{code: dto.ErrCodeBadRequest, err: fmt.Errorf("invalid JSON body: %w", err)}
	}
	if len(body.Hub.Header) == 0 {
		return service.Request{}, &requestError{code: dto.ErrCodeValidation, err: errors.New("hub.header is required")}
	}
	if len(body.Sales.Header) == 0 {
		return service.Request{}, &requestError{code: dto.ErrCodeValidation, err: errors.New("sales.header is required")}
	}

	return service.Request{
		HubName:   nameOr(body.HubName, "hub"),
		SalesName: nameOr(body.SalesName, "sales"),
		Hub:       body.Hub.Table(),
		Sales:     body.Sales.Table(),
		DryRun:    body.DryRun,
	}, nil
}

func (h *ReconcileHandler) fromMultipart(r *http.Request) (service.Request, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return service.Request{}, &requestError{code: dto.ErrCodeBadRequest, err: fmt.Errorf("invalid multipart body: %w", err)}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	hubName, hub, err := readUpload(r, "hub", r.FormValue("sheet_hub"))
	if err != nil {
		return service.Request{}, err
	}
	salesName, sales, err := readUpload(r, "sales", r.FormValue("sheet_sales"))
	if err != nil {
		return service.Request{}, err
	}

	return service.Request{
		HubName:   hubName,
		SalesName: salesName,
		Hub:       hub,
		Sales:     sales,
		DryRun:    r.FormValue("dry_run") == "true" || r.FormValue("dry_run") == "1",
	}, nil
}

func readUpload(r *http.Request, field, sheet string) (string, table.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", table.Table{}, &requestError{code: dto.ErrCodeValidation, err: fmt.Errorf("file %q is required", field)}
	}
	defer func() { _ = file.Close() }()

	t, err := spreadsheet.Read(file, header.Filename, sheet)
	if err != nil {
		return "", table.Table{}, &requestError{code: dto.ErrCodeValidation, err: err}
	}
	return header.Filename, t, nil
}

// requestError is a client error with its API error code.
type requestError struct {
	code string
	err  error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func (h *ReconcileHandler) writeRequestError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.WriteError(w, http.StatusRequestEntityTooLarge,
			dto.PayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)))
		return
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		h.WriteError(w, http.StatusBadRequest, dto.NewAPIError(reqErr.code, reqErr.Error()))
		return
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("truncated request body"))
		return
	}

	h.logger.Error("Unreadable reconcile request", "error", err)
	h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
