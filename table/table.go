// Package table holds the result of an export: one row per ZIP code, a
// Location column and one column per requested table id.
package table

import (
	"github.com/m-lab/acs-export/census"
	"github.com/m-lab/acs-export/input"
)

// LocationColumn is the name of the column holding resolved locations.
const LocationColumn = "Location"

// IndexColumn is the header of the row index column.
const IndexColumn = "ZIP"

// Column is the set of fetched values for one table id, keyed by zip code.
type Column struct {
	TableID string
	Values  map[int]census.Result
}

// Record is a single cell of the table, flattened for warehouse sinks.
type Record struct {
	ZIP      int
	Location string
	TableID  string
	Label    string
	Result   census.Result
}

// Table is the result of one export. It is not safe for concurrent use.
type Table struct {
	zips     []int
	location map[int]string
	ids      []string
	columns  map[string]map[int]census.Result
	labels   map[string]string
}

// New returns a table with one row per distinct zip code and an empty column
// for each distinct table id, both in first occurrence order.
func New(zips []int, tableIDs []string) *Table {
	t := &Table{
		location: make(map[int]string, len(zips)),
		columns:  make(map[string]map[int]census.Result, len(tableIDs)),
		labels:   map[string]string{},
	}
	seen := make(map[int]bool, len(zips))
	for _, zip := range zips {
		if seen[zip] {
			continue
		}
		seen[zip] = true
		t.zips = append(t.zips, zip)
	}
	for _, id := range tableIDs {
		if _, ok := t.columns[id]; ok {
			continue
		}
		t.ids = append(t.ids, id)
		t.columns[id] = map[int]census.Result{}
	}
	return t
}

// SetLocation sets the Location cell for zip.
func (t *Table) SetLocation(zip int, location string) {
	t.location[zip] = location
}

// AddColumn replaces the values of c.TableID. Table ids not given to New are
// appended after the existing columns.
func (t *Table) AddColumn(c Column) {
	if _, ok := t.columns[c.TableID]; !ok {
		t.ids = append(t.ids, c.TableID)
	}
	values := make(map[int]census.Result, len(c.Values))
	for zip, r := range c.Values {
		values[zip] = r
	}
	t.columns[c.TableID] = values
}

// SetLabels sets the header used for each table id. Ids without a label keep
// their raw id as header.
func (t *Table) SetLabels(labels map[string]string) {
	for id, label := range labels {
		t.labels[id] = label
	}
}

// ZIPs returns the row keys in order.
func (t *Table) ZIPs() []int {
	return append([]int(nil), t.zips...)
}

// TableIDs returns the table ids in column order.
func (t *Table) TableIDs() []string {
	return append([]string(nil), t.ids...)
}

// Label returns the header of the column for id.
func (t *Table) Label(id string) string {
	if l, ok := t.labels[id]; ok {
		return l
	}
	return id
}

// Location returns the Location cell of zip.
func (t *Table) Location(zip int) string {
	return t.location[zip]
}

// Result returns the fetched result for (id, zip). ok is false when the
// cell was never filled.
func (t *Table) Result(id string, zip int) (census.Result, bool) {
	r, ok := t.columns[id][zip]
	return r, ok
}

// Columns returns the data column headers: Location followed by every
// table label.
func (t *Table) Columns() []string {
	cols := []string{LocationColumn}
	for _, id := range t.ids {
		cols = append(cols, t.Label(id))
	}
	return cols
}

// Header returns the index column header followed by Columns.
func (t *Table) Header() []string {
	return append([]string{IndexColumn}, t.Columns()...)
}

// Rows returns every row rendered as strings, in ZIP order, matching Header.
func (t *Table) Rows() [][]string {
	rows := make([][]string, 0, len(t.zips))
	for _, zip := range t.zips {
		row := []string{input.FormatZIP(zip), t.location[zip]}
		for _, id := range t.ids {
			row = append(row, t.columns[id][zip].Cell())
		}
		rows = append(rows, row)
	}
	return rows
}

// Records returns every table cell, row by row.
func (t *Table) Records() []Record {
	records := make([]Record, 0, len(t.zips)*len(t.ids))
	for _, zip := range t.zips {
		for _, id := range t.ids {
			records = append(records, Record{
				ZIP:      zip,
				Location: t.location[zip],
				TableID:  id,
				Label:    t.Label(id),
				Result:   t.columns[id][zip],
			})
		}
	}
	return records
}
