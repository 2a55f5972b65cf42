// Package table defines the tabular shapes exchanged with the reconciliation
// engine: parsed input sheets and the composed result table.
package table

// Cell is a single scalar value: string, number, decimal, date or nil.
type Cell = any

// Row is an ordered sequence of cells.
type Row []Cell

// Table is a parsed dataset with its header row kept separate from data rows.
type Table struct {
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Cell returns the value at column idx of row r, or nil when the row is short
// or idx is negative.
func (r Row) Cell(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return nil
	}
	return r[idx]
}
