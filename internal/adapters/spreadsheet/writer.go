package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// ResultSheet names the worksheet WriteXLSX produces.
const ResultSheet = "Reconciliation"

// numFmtTwoPlaces is the built-in "0.00" number format.
const numFmtTwoPlaces = 2

// Write renders rows in the given format
func Write(w io.Writer, format Format, rows []table.Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteCSV renders rows as CSV. Decimals use two places and dates YYYY-MM-DD.
func WriteCSV(w io.Writer, rows []table.Row) error {
	writer := csv.NewWriter(w)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = cellText(c)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX renders rows into a single-sheet workbook. Amounts are written as
// numbers with a two-place format.
func WriteXLSX(w io.Writer, rows []table.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ResultSheet); err != nil {
		return err
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoPlaces})
	if err != nil {
		return err
	}

	for r, row := range rows {
		values := make([]interface{}, len(row))
		var amountCols []int
		for c, cell := range row {
			if d, ok := numericCell(cell); ok {
				num, _ := d.Round(2).Float64()
				values[c] = num
				amountCols = append(amountCols, c)
				continue
			}
			values[c] = cellText(cell)
		}

		if len(values) == 0 {
			continue
		}

		start, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultSheet, start, &values); err != nil {
			return err
		}
		for _, c := range amountCols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellStyle(ResultSheet, cell, cell, amountStyle); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// numericCell reports whether a cell holds an amount. Only typed numbers
// qualify; strings are written as text even when they look numeric.
func numericCell(c table.Cell) (decimal.Decimal, bool) {
	switch v := c.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Decimal{}, false
	}
}

// cellText renders a cell as text: decimals with two places, dates as
// YYYY-MM-DD.
func cellText(c table.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.StringFixed(2)
	case civil.Date:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02")
	case float64:
		return decimal.NewFromFloat(v).StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}
