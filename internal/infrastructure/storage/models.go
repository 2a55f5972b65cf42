package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// Run is one recorded reconciliation
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	HubName   string    `json:"hub_name"`
	SalesName string    `json:"sales_name"`

	HubRows          int `json:"hub_rows"`
	SalesRows        int `json:"sales_rows"`
	ConfirmedCount   int `json:"confirmed_count"`
	DiscrepancyCount int `json:"discrepancy_count"`
	SalesOrphanCount int `json:"sales_orphan_count"`
	CategoryCount    int `json:"category_count"`

	SalesMatchingDisabled bool `json:"sales_matching_disabled"`

	// Grand totals across all categories
	HubTotal   decimal.Decimal `json:"hub_total"`
	SalesTotal decimal.Decimal `json:"sales_total"`
	Difference decimal.Decimal `json:"difference"`

	// Rows is the composed result table. Cells come back from storage as
	// strings or nil.
	Rows []table.Row `json:"rows,omitempty"`
}
