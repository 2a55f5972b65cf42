package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// encodeRows serializes a result table. Decimal cells are written as JSON
// numbers with two places so they decode back into decimals; every other
// JSON number is treated the same way.
func encodeRows(rows []table.Row) ([]byte, error) {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, c := range row {
			if d, ok := c.(decimal.Decimal); ok {
				cells[j] = json.Number(d.StringFixed(2))
				continue
			}
			cells[j] = c
		}
		out[i] = cells
	}
	return json.Marshal(out)
}

// decodeRows is the inverse of encodeRows: JSON numbers become decimals and
// strings stay strings, so a numeric-looking label keeps its text.
func decodeRows(data []byte) ([]table.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	rows := make([]table.Row, len(raw))
	for i, cells := range raw {
		row := make(table.Row, len(cells))
		for j, c := range cells {
			n, ok := c.(json.Number)
			if !ok {
				row[j] = c
				continue
			}
			d, err := decimal.NewFromString(n.String())
			if err != nil {
				return nil, fmt.Errorf("row %d cell %d: %w", i, j, err)
			}
			row[j] = d
		}
		rows[i] = row
	}
	return rows, nil
}
