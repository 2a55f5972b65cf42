// Package composer assembles the reconciliation result table.
package composer

import (
	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/reconciler"
	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// DetailHeader names the six discrepancy fields.
var DetailHeader = table.Row{"Date", "Counterparty", "Gross", "Discount", "Category", "Net"}

// SummaryHeader names the category comparison columns.
var SummaryHeader = table.Row{"Category", "Hub Report", "Sales Report", "Difference"}

// HeaderRows is the number of header rows Compose emits.
const HeaderRows = 2

// Compose produces, in order: the detail header, one row per discrepancy, a
// blank separator, the summary header, one row per category total and the
// grand total row.
func Compose(discrepancies []reconciler.Discrepancy, totals []aggregator.CategoryTotal) []table.Row {
	rows := make([]table.Row, 0, len(discrepancies)+len(totals)+4)

	rows = append(rows, cloneRow(DetailHeader))
	for _, d := range discrepancies {
		rows = append(rows, DetailRow(d))
	}

	rows = append(rows, table.Row{})
	rows = append(rows, cloneRow(SummaryHeader))
	for _, t := range totals {
		rows = append(rows, SummaryRow(t))
	}
	rows = append(rows, SummaryRow(aggregator.Sum(totals)))

	return rows
}

// DetailRow renders one discrepancy as date, counterparty, gross, discount,
// category, net.
func DetailRow(d reconciler.Discrepancy) table.Row {
	tx := d.Transaction
	return table.Row{
		tx.DateKey(),
		tx.Label,
		tx.Gross,
		tx.Discount,
		d.Category,
		tx.Net,
	}
}

// SummaryRow renders one category total.
func SummaryRow(t aggregator.CategoryTotal) table.Row {
	return table.Row{t.Category, t.HubTotal, t.SalesTotal, t.Difference}
}

func cloneRow(r table.Row) table.Row {
	out := make(table.Row, len(r))
	copy(out, r)
	return out
}
