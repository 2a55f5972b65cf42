package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settlement-recon/internal/api/dto"
	"github.com/eshaffer321/settlement-recon/internal/api/handlers"
	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/application/service"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(cfg reconcile.Config, repo storage.Repository) *service.ReconcileService {
	return service.NewReconcileService(reconcile.NewEngine(cfg, quietLogger()), repo, quietLogger())
}

const reconcileJSON = `{
  "hub": {
    "header": ["Date", "Card Type", "Amount", "Discount"],
    "rows": [
      ["2024-05-01", "Visa", 125.99, 3.15],
      ["2024-05-01", "Mastercard", "45.75", "1.14"]
    ]
  },
  "sales": {
    "header": ["Date Closed", "Name", "Amount"],
    "rows": [["2024-05-01", "Visa", 122.84]]
  }
}`

func postJSON(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestReconcileHandler_JSON(t *testing.T) {
	t.Run("returns discrepancies and records the run", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), repo), 0, quietLogger())

		rec := postJSON(handler.Reconcile, reconcileJSON)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.True(t, response.Saved)
		assert.NotEmpty(t, response.RunID)
		assert.Equal(t, 1, response.ConfirmedCount)
		require.Len(t, response.Discrepancies, 1)
		assert.Equal(t, "Mastercard", response.Discrepancies[0].Counterparty)
		assert.Equal(t, "44.61", response.Discrepancies[0].Net)
		assert.Equal(t, 1, response.Discrepancies[0].Row)
		assert.Equal(t, "44.61", response.Total.Difference)
		assert.Len(t, response.Rows, len(response.Discrepancies)+len(response.Totals)+4)
		assert.True(t, repo.SaveRunCalled)
	})

	t.Run("dry run is not recorded", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), repo), 0, quietLogger())

		body := strings.Replace(reconcileJSON, `"hub": {`, `"dry_run": true, "hub": {`, 1)
		rec := postJSON(handler.Reconcile, body)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, repo.SaveRunCalled)
	})

	t.Run("invalid JSON is a bad request", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), nil), 0, quietLogger())

		rec := postJSON(handler.Reconcile, `{"hub":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeBadRequest, apiErr.Code)
	})

	t.Run("missing header is a validation error", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), nil), 0, quietLogger())

		rec := postJSON(handler.Reconcile, `{"hub":{"header":[],"rows":[]},"sales":{"header":["Date"]}}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
	})

	t.Run("oversized dataset is 413", func(t *testing.T) {
		cfg := reconcile.DefaultConfig()
		cfg.MaxRows = 1
		handler := handlers.NewReconcileHandler(newService(cfg, nil), 0, quietLogger())

		rec := postJSON(handler.Reconcile, reconcileJSON)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodePayloadTooLarge, apiErr.Code)
		assert.Contains(t, apiErr.Message, "hub dataset has 2 rows")
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), nil), 64, quietLogger())

		rec := postJSON(handler.Reconcile, reconcileJSON)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func multipartBody(t *testing.T, files map[string][2]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestReconcileHandler_Multipart(t *testing.T) {
	hubCSV := "Date,Card Type,Amount,Discount\n2024-05-01,Visa,125.99,3.15\n2024-05-01,Mastercard,45.75,1.14\n"
	salesCSV := "Date Closed,Name,Amount\n5/1/2024,Credit Visa,122.84\n"

	t.Run("reads uploaded files", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), repo), 0, quietLogger())

		body, contentType := multipartBody(t, map[string][2]string{
			"hub":   {"hub.csv", hubCSV},
			"sales": {"sales.csv", salesCSV},
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Len(t, response.Discrepancies, 1)
		assert.Equal(t, "hub.csv", repo.LastSavedRun.HubName)
		assert.Equal(t, "sales.csv", repo.LastSavedRun.SalesName)
	})

	t.Run("missing sales file", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), nil), 0, quietLogger())

		body, contentType := multipartBody(t, map[string][2]string{"hub": {"hub.csv", hubCSV}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		handler := handlers.NewReconcileHandler(newService(reconcile.DefaultConfig(), nil), 0, quietLogger())

		body, contentType := multipartBody(t, map[string][2]string{
			"hub":   {"hub.pdf", "%PDF"},
			"sales": {"sales.csv", salesCSV},
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/reconcile", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
	})
}

// withID routes a request through chi so URL params resolve.
func withID(pattern string, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get(pattern, h)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedRun(t *testing.T, repo *storage.MockRepository) string {
	t.Helper()
	svc := newService(reconcile.DefaultConfig(), repo)
	var body dto.ReconcileRequest
	require.NoError(t, json.Unmarshal([]byte(reconcileJSON), &body))
	outcome, err := svc.Reconcile(context.Background(), service.Request{
		HubName:   "hub",
		SalesName: "sales",
		Hub:       body.Hub.Table(),
		Sales:     body.Sales.Table(),
	})
	require.NoError(t, err)
	return outcome.Run.ID
}

func TestRunsHandler(t *testing.T) {
	repo := storage.NewMockRepository()
	id := seedRun(t, repo)
	handler := handlers.NewRunsHandler(newService(reconcile.DefaultConfig(), repo))

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, id, response.Runs[0].ID)
		assert.Empty(t, response.Runs[0].Rows)
	})

	t.Run("get", func(t *testing.T) {
		rec := withID("/api/runs/{id}", handler.Get, "/api/runs/"+id)

		require.Equal(t, http.StatusOK, rec.Code)
		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.DiscrepancyCount)
		assert.Equal(t, "44.61", response.Difference)
		assert.NotEmpty(t, response.Rows)
	})

	t.Run("get not found", func(t *testing.T) {
		rec := withID("/api/runs/{id}", handler.Get, "/api/runs/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("export csv", func(t *testing.T) {
		rec := withID("/api/runs/{id}/export", handler.Export, "/api/runs/"+id+"/export?format=csv")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,Counterparty,Gross,Discount,Category,Net\n"))
		assert.Contains(t, rec.Body.String(), "2024-05-01,Mastercard,45.75,1.14,Mastercard,44.61")
	})

	t.Run("export xlsx", func(t *testing.T) {
		rec := withID("/api/runs/{id}/export", handler.Export, "/api/runs/"+id+"/export?format=xlsx")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
	})

	t.Run("export bad format", func(t *testing.T) {
		rec := withID("/api/runs/{id}/export", handler.Export, "/api/runs/"+id+"/export?format=pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export not found", func(t *testing.T) {
		rec := withID("/api/runs/{id}/export", handler.Export, "/api/runs/nope/export")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
