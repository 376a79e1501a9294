// Package input decodes the two flat files an export is driven by: the ZIP
// code list and the table id list.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrTooFewFields is returned when a line has fewer fields than the
	// format requires.
	ErrTooFewFields = errors.New("too few fields")
	// ErrZIPNotFound is returned by Locations.Resolve when no record matches.
	ErrZIPNotFound = errors.New("zip code not found")
)

// ZipRecord is one line of the ZIP input file.
type ZipRecord struct {
	ZIP    int
	City   string
	State  string
	County string
}

// TableSpec is one line of the table id input file.
type TableSpec struct {
	ID         string
	CommonName string
}

// ParseError reports the line a decoding failure happened on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// splitLines trims the whole content once and splits it into lines, dropping
// a trailing carriage return from each.
func splitLines(r io.Reader) ([]string, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows := strings.Split(string(bytes.TrimSpace(content)), "\n")
	for i := range rows {
		rows[i] = strings.TrimSuffix(rows[i], "\r")
	}
	return rows, nil
}

// ParseZIPs decodes lines in the form zip_code,state,county,city. Any extra
// trailing fields are ignored.
func ParseZIPs(r io.Reader) ([]ZipRecord, error) {
	rows, err := splitLines(r)
	if err != nil {
		return nil, err
	}
	result := make([]ZipRecord, 0, len(rows))
	for i, row := range rows {
		columns := strings.Split(row, ",")
		if len(columns) < 4 {
			return nil, &ParseError{Line: i + 1, Err: ErrTooFewFields}
		}
		zip, err := strconv.Atoi(strings.TrimSpace(columns[0]))
		if err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}
		result = append(result, ZipRecord{
			ZIP:    zip,
			State:  columns[1],
			County: columns[2],
			City:   columns[3],
		})
	}
	return result, nil
}

// ParseTables decodes lines in the form table_id,common_name.
func ParseTables(r io.Reader) ([]TableSpec, error) {
	rows, err := splitLines(r)
	if err != nil {
		return nil, err
	}
	result := make([]TableSpec, 0, len(rows))
	for i, row := range rows {
		columns := strings.Split(row, ",")
		if len(columns) < 2 {
			return nil, &ParseError{Line: i + 1, Err: ErrTooFewFields}
		}
		result = append(result, TableSpec{
			ID:         columns[0],
			CommonName: columns[1],
		})
	}
	return result, nil
}

// ReadZIPFile opens and decodes the ZIP file at path.
func ReadZIPFile(path string) ([]ZipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ParseZIPs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadTableFile opens and decodes the table id file at path.
func ReadTableFile(path string) ([]TableSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	specs, err := ParseTables(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// ZIPCodes returns the zip codes of records in file order.
func ZIPCodes(records []ZipRecord) []int {
	zips := make([]int, 0, len(records))
	for _, r := range records {
		zips = append(zips, r.ZIP)
	}
	return zips
}

// TableIDs returns the table ids of specs in file order.
func TableIDs(specs []TableSpec) []string {
	ids := make([]string, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, s.ID)
	}
	return ids
}

// CommonNames returns the labels of specs in file order.
func CommonNames(specs []TableSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.CommonName)
	}
	return names
}

// Labels maps each table id to its common name. Later duplicates win.
func Labels(specs []TableSpec) map[string]string {
	labels := make(map[string]string, len(specs))
	for _, s := range specs {
		labels[s.ID] = s.CommonName
	}
	return labels
}

// FormatZIP renders a zip code as five zero-padded digits.
func FormatZIP(zip int) string {
	return fmt.Sprintf("%05d", zip)
}
