// Package normalizer turns parsed header+row tables into canonical
// transactions.
//
// Columns are located by alias: the hub dataset matches header cells exactly,
// the sales dataset trims and folds case. A column that cannot be located
// leaves its field empty or zero; dirty cells never produce an error.
//
// Example usage:
//
//	n := normalizer.New(normalizer.DefaultConfig())
//	hub := n.Normalize(hubTable, normalizer.OriginHub)
//	sales := n.Normalize(salesTable, normalizer.OriginSales)
//	if !sales.Matchable() {
//		// required sales columns are missing
//	}
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// Normalizer converts tables into Datasets.
type Normalizer struct {
	config Config
	labels *labelNormalizer
}

// New creates a normalizer with the given config.
func New(config Config) *Normalizer {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Normalizer{
		config: config,
		labels: compileLabels(config.Labels),
	}
}

// datasetConfig returns the column configuration for origin.
func (n *Normalizer) datasetConfig(origin Origin) DatasetConfig {
	if origin == OriginSales {
		return n.config.Sales
	}
	return n.config.Hub
}

// Normalize resolves columns for t and converts every non-blank row.
func (n *Normalizer) Normalize(t table.Table, origin Origin) Dataset {
	cfg := n.datasetConfig(origin)
	cols := ResolveColumns(t.Header, cfg)

	ds := Dataset{
		Origin:       origin,
		Columns:      cols,
		Missing:      cols.Missing(cfg.Required),
		Transactions: make([]Transaction, 0, len(t.Rows)),
	}

	for i, row := range t.Rows {
		if isBlankRow(row) {
			continue
		}
		ds.Transactions = append(ds.Transactions, n.normalizeRow(i, row, cols, origin))
	}
	return ds
}

func (n *Normalizer) normalizeRow(idx int, row table.Row, cols ColumnMap, origin Origin) Transaction {
	tx := Transaction{
		Index:    idx,
		Origin:   origin,
		Date:     parseDate(row.Cell(cols.Index(FieldDate)), n.config.Location),
		Label:    n.NormalizeLabel(cellString(row.Cell(cols.Index(FieldCounterparty)))),
		Category: n.labels.category(cellString(row.Cell(cols.Index(FieldCategory)))),
		Gross:    parseAmount(row.Cell(cols.Index(FieldGrossAmount))),
		Discount: decimal.Zero,
	}

	tx.Net = tx.Gross
	if cols.Has(FieldDiscountAmount) {
		tx.Discount = parseAmount(row.Cell(cols.Index(FieldDiscountAmount)))
		tx.Net = tx.Gross.Sub(tx.Discount)
	}
	return tx
}

// NormalizeLabel applies the configured label rules to a raw counterparty.
func (n *Normalizer) NormalizeLabel(raw string) string {
	return n.labels.normalize(raw)
}

// cellString renders a cell as text for label and category fields.
func cellString(v table.Cell) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprint(val)
	}
}

func isBlankRow(row table.Row) bool {
	for _, c := range row {
		if strings.TrimSpace(cellString(c)) != "" {
			return false
		}
	}
	return true
}
