// Package spreadsheet reads hub and sales uploads into tables and writes
// result tables back out as CSV or XLSX.
//
// Example usage:
//
//	f, _ := os.Open("hub.xlsx")
//	hub, err := spreadsheet.Read(f, "hub.xlsx", "")
//	...
//	err = spreadsheet.WriteXLSX(out, result.Rows)
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// Format identifies a spreadsheet file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than csv/xlsx/xlsm.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrSheetNotFound is returned when a named sheet is absent from a workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrEmptySheet is returned when a file has no header row.
	ErrEmptySheet = errors.New("spreadsheet has no header row")
)

// FormatFromName picks the format from a file name's extension
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Read parses r into a table. The format comes from filename. For workbooks,
// sheet selects a worksheet by name; empty means the first sheet.
//
// The header is the first row with any non-blank cell. Trailing blank rows are
// dropped; interior blank rows are kept. Date-formatted workbook cells become
// time.Time, every other cell is its raw string.
func Read(r io.Reader, filename, sheet string) (table.Table, error) {
	format, err := FormatFromName(filename)
	if err != nil {
		return table.Table{}, err
	}

	var grid [][]table.Cell
	switch format {
	case FormatCSV:
		grid, err = readCSV(r)
	case FormatXLSX:
		grid, err = readXLSX(r, sheet)
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	t, err := fromGrid(grid)
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return t, nil
}

func readCSV(r io.Reader) ([][]table.Cell, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	grid := make([][]table.Cell, len(records))
	for i, rec := range records {
		row := make([]table.Cell, len(rec))
		for j, v := range rec {
			if i == 0 && j == 0 {
				v = strings.TrimPrefix(v, "\ufeff")
			}
			row[j] = v
		}
		grid[i] = row
	}
	return grid, nil
}

func readXLSX(r io.Reader, sheet string) ([][]table.Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	dates := &dateStyles{file: f, known: make(map[int]bool)}
	grid := make([][]table.Cell, len(rows))
	for i, rec := range rows {
		row := make([]table.Cell, len(rec))
		for j, v := range rec {
			row[j] = v
			if v == "" {
				continue
			}
			if t, ok := dates.convert(sheet, j+1, i+1, v); ok {
				row[j] = t
			}
		}
		grid[i] = row
	}
	return grid, nil
}

// dateStyles caches which cell styles carry a date number format.
type dateStyles struct {
	file  *excelize.File
	known map[int]bool
}

// convert returns the cell as time.Time when it is a serial number under a
// date format.
func (d *dateStyles) convert(sheet string, col, row int, raw string) (any, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, false
	}
	styleID, err := d.file.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return nil, false
	}

	isDate, ok := d.known[styleID]
	if !ok {
		isDate = d.isDateStyle(styleID)
		d.known[styleID] = isDate
	}
	if !isDate {
		return nil, false
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil, false
	}
	return t, true
}

func (d *dateStyles) isDateStyle(styleID int) bool {
	style, err := d.file.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isBuiltInDateFormat(style.NumFmt)
}

// isBuiltInDateFormat reports whether a built-in number format id renders a date.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

// isDateFormatCode reports whether a custom format code contains a day or
// year token outside literals and bracketed sections.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	stripped := strings.ToLower(b.String())
	return strings.ContainsAny(stripped, "dy")
}

// fromGrid splits a raw grid into header and rows.
func fromGrid(grid [][]table.Cell) (table.Table, error) {
	start := -1
	for i, row := range grid {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return table.Table{}, ErrEmptySheet
	}

	end := len(grid)
	for end > start+1 && blank(grid[end-1]) {
		end--
	}

	header := make([]string, len(grid[start]))
	for i, c := range grid[start] {
		header[i] = strings.TrimSpace(cellText(c))
	}

	rows := make([]table.Row, 0, end-start-1)
	for _, row := range grid[start+1 : end] {
		rows = append(rows, table.Row(row))
	}
	return table.Table{Header: header, Rows: rows}, nil
}

func blank(row []table.Cell) bool {
	for _, c := range row {
		if strings.TrimSpace(cellText(c)) != "" {
			return false
		}
	}
	return true
}
