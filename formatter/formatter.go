// Package formatter provides spreadsheet formatters for export tables.
package formatter

import (
	"fmt"

	"github.com/m-lab/acs-export/table"
)

// Formatter converts a table into bytes suitable for writing to disk.
type Formatter interface {
	Marshal(t *table.Table) ([]byte, error)
	Extension() string
}

// ForName returns the formatter registered for name ("xlsx" or "csv").
func ForName(name string) (Formatter, error) {
	switch name {
	case "", "xlsx":
		return NewXLSXFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	}
	return nil, fmt.Errorf("unknown output format: %q", name)
}
