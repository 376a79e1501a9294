package input

import "fmt"

// Locations resolves zip codes to a display label.
type Locations struct {
	records []ZipRecord
}

// NewLocations returns a resolver over records.
func NewLocations(records []ZipRecord) *Locations {
	return &Locations{records: records}
}

// Resolve returns "<city>, <state> - <county>" for the first record matching
// zip, or an error wrapping ErrZIPNotFound.
func (l *Locations) Resolve(zip int) (string, error) {
	for _, r := range l.records {
		if r.ZIP == zip {
			return r.City + ", " + r.State + " - " + r.County, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrZIPNotFound, FormatZIP(zip))
}
