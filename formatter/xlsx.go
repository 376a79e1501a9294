package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/m-lab/acs-export/table"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet the table is written to.
const DefaultSheet = "Sheet1"

// XLSXFormatter writes tables as Excel workbooks.
type XLSXFormatter struct {
	Sheet string
}

// NewXLSXFormatter creates a new XLSXFormatter writing to DefaultSheet.
func NewXLSXFormatter() *XLSXFormatter {
	return &XLSXFormatter{Sheet: DefaultSheet}
}

// Extension returns the file extension for workbooks.
func (f *XLSXFormatter) Extension() string {
	return ".xlsx"
}

// Marshal writes the header row followed by one row per ZIP code. Cells that
// parse as numbers are stored as numbers; the ZIP column is kept as text so
// leading zeros survive.
func (f *XLSXFormatter) Marshal(t *table.Table) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := f.Sheet
	if sheet != DefaultSheet {
		idx, err := wb.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
		wb.SetActiveSheet(idx)
		if err := wb.DeleteSheet(DefaultSheet); err != nil {
			return nil, err
		}
	}

	header := t.Header()
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := wb.SetSheetRow(sheet, "A1", &values); err != nil {
		return nil, err
	}
	for r, row := range t.Rows() {
		values := make([]interface{}, len(row))
		for i, cell := range row {
			values[i] = cell
			if i == 0 {
				continue
			}
			if n, ok := numeric(cell); ok {
				values[i] = n
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := wb.SetSheetRow(sheet, axis, &values); err != nil {
			return nil, err
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// numeric returns cell as a number when it is a plain finite decimal that a
// float64 holds exactly enough. Anything else stays text.
func numeric(cell string) (float64, bool) {
	if strings.ContainsAny(cell, "xXnNiI_") {
		return 0, false
	}
	n, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil && (i > 1<<53 || i < -(1<<53)) {
		return 0, false
	}
	return n, true
}
