package formatter

import (
	"bytes"
	"encoding/csv"

	"github.com/m-lab/acs-export/table"
)

// CSVFormatter writes tables as comma-separated values.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSVFormatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Extension returns the file extension for CSV files.
func (f *CSVFormatter) Extension() string {
	return ".csv"
}

// Marshal writes the header row followed by one row per ZIP code.
func (f *CSVFormatter) Marshal(t *table.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Header()); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
