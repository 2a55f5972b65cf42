package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
	"github.com/eshaffer321/settlement-recon/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint. Recording is
// false when the server runs without run history.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Recording bool   `json:"recording"`
	MaxRows   int    `json:"max_rows"` // 0 = unlimited
}

// NewHealthResponse creates a healthy response with the current timestamp.
func NewHealthResponse(recording bool, maxRows int) HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Recording: recording,
		MaxRows:   maxRows,
	}
}

// DiscrepancyResponse is one unconfirmed record.
type DiscrepancyResponse struct {
	Row          int    `json:"row"` // zero-based data row in the source dataset
	Date         string `json:"date"`
	Counterparty string `json:"counterparty"`
	Gross        string `json:"gross"`
	Discount     string `json:"discount"`
	Net          string `json:"net"`
	Category     string `json:"category"`
	MatchCount   int    `json:"match_count"`
}

// CategoryTotalResponse is one row of the totals comparison.
type CategoryTotalResponse struct {
	Category   string `json:"category"`
	HubTotal   string `json:"hub_total"`
	SalesTotal string `json:"sales_total"`
	Difference string `json:"difference"`
}

// ReconcileResponse is returned by POST /api/reconcile.
type ReconcileResponse struct {
	RunID                 string                  `json:"run_id"`
	Saved                 bool                    `json:"saved"`
	HubRecords            int                     `json:"hub_records"`
	SalesRecords          int                     `json:"sales_records"`
	ConfirmedCount        int                     `json:"confirmed_count"`
	SalesMatchingDisabled bool                    `json:"sales_matching_disabled"`
	MissingSalesColumns   []string                `json:"missing_sales_columns,omitempty"`
	Discrepancies         []DiscrepancyResponse   `json:"discrepancies"`
	SalesOrphans          []DiscrepancyResponse   `json:"sales_orphans"`
	Totals                []CategoryTotalResponse `json:"totals"`
	Total                 CategoryTotalResponse   `json:"total"`
	Rows                  []table.Row             `json:"rows"`
}

// RunResponse represents a recorded run.
type RunResponse struct {
	ID                    string      `json:"id"`
	CreatedAt             string      `json:"created_at"`
	HubName               string      `json:"hub_name"`
	SalesName             string      `json:"sales_name"`
	HubRows               int         `json:"hub_rows"`
	SalesRows             int         `json:"sales_rows"`
	ConfirmedCount        int         `json:"confirmed_count"`
	DiscrepancyCount      int         `json:"discrepancy_count"`
	SalesOrphanCount      int         `json:"sales_orphan_count"`
	CategoryCount         int         `json:"category_count"`
	SalesMatchingDisabled bool        `json:"sales_matching_disabled"`
	HubTotal              string      `json:"hub_total"`
	SalesTotal            string      `json:"sales_total"`
	Difference            string      `json:"difference"`
	Rows                  []table.Row `json:"rows,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// NewReconcileResponse converts an engine result.
func NewReconcileResponse(runID string, saved bool, result *reconcile.Result) ReconcileResponse {
	resp := ReconcileResponse{
		RunID:                 runID,
		Saved:                 saved,
		HubRecords:            result.HubRecords,
		SalesRecords:          result.SalesRecords,
		ConfirmedCount:        result.ConfirmedCount,
		SalesMatchingDisabled: result.SalesMatchingDisabled,
		Discrepancies:         toDiscrepancies(result.Discrepancies),
		SalesOrphans:          toDiscrepancies(result.SalesOrphans),
		Totals:                make([]CategoryTotalResponse, 0, len(result.Totals)),
		Total:                 toCategoryTotal(result.Total),
		Rows:                  result.Rows,
	}
	for _, f := range result.MissingSalesColumns {
		resp.MissingSalesColumns = append(resp.MissingSalesColumns, string(f))
	}
	for _, t := range result.Totals {
		resp.Totals = append(resp.Totals, toCategoryTotal(t))
	}
	return resp
}

// NewRunResponse converts a stored run. Rows are included when present.
func NewRunResponse(run *storage.Run) RunResponse {
	return RunResponse{
		ID:                    run.ID,
		CreatedAt:             run.CreatedAt.UTC().Format(time.RFC3339),
		HubName:               run.HubName,
		SalesName:             run.SalesName,
		HubRows:               run.HubRows,
		SalesRows:             run.SalesRows,
		ConfirmedCount:        run.ConfirmedCount,
		DiscrepancyCount:      run.DiscrepancyCount,
		SalesOrphanCount:      run.SalesOrphanCount,
		CategoryCount:         run.CategoryCount,
		SalesMatchingDisabled: run.SalesMatchingDisabled,
		HubTotal:              money(run.HubTotal),
		SalesTotal:            money(run.SalesTotal),
		Difference:            money(run.Difference),
		Rows:                  run.Rows,
	}
}

func toDiscrepancies(ds []reconciler.Discrepancy) []DiscrepancyResponse {
	out := make([]DiscrepancyResponse, 0, len(ds))
	for _, d := range ds {
		tx := d.Transaction
		out = append(out, DiscrepancyResponse{
			Row:          tx.Index,
			Date:         tx.DateKey(),
			Counterparty: tx.Label,
			Gross:        money(tx.Gross),
			Discount:     money(tx.Discount),
			Net:          money(tx.Net),
			Category:     d.Category,
			MatchCount:   d.MatchCount,
		})
	}
	return out
}

func toCategoryTotal(t aggregator.CategoryTotal) CategoryTotalResponse {
	return CategoryTotalResponse{
		Category:   t.Category,
		HubTotal:   money(t.HubTotal),
		SalesTotal: money(t.SalesTotal),
		Difference: money(t.Difference),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
