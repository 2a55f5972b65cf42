package dto

import "github.com/eshaffer321/settlement-recon/internal/domain/table"

// TableRequest is one dataset posted as JSON. Cells may be strings, numbers
// or null.
type TableRequest struct {
	Header []string        `json:"header"`
	Rows   [][]interface{} `json:"rows"`
}

// ReconcileRequest is the JSON body of POST /api/reconcile.
type ReconcileRequest struct {
	HubName   string       `json:"hub_name,omitempty"`
	SalesName string       `json:"sales_name,omitempty"`
	Hub       TableRequest `json:"hub"`
	Sales     TableRequest `json:"sales"`
	DryRun    bool         `json:"dry_run"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}

// Table converts the request into an engine table.
func (t TableRequest) Table() table.Table {
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}
	return table.Table{Header: t.Header, Rows: rows}
}
