package census

// Family is the ACS table family a table id belongs to.
type Family int

const (
	Unknown Family = iota
	DetailedTable
	SubjectTable
	DataProfile
	ComparisonProfile
)

var familyNames = map[Family]string{
	Unknown:           "unknown",
	DetailedTable:     "detailed",
	SubjectTable:      "subject",
	DataProfile:       "profile",
	ComparisonProfile: "cprofile",
}

func (f Family) String() string {
	return familyNames[f]
}

// Classify returns the family of tableID based on its leading letter. The
// prefix is case sensitive: "s1901" is not a subject table.
func Classify(tableID string) Family {
	if tableID == "" {
		return Unknown
	}
	switch tableID[0] {
	case 'B':
		return DetailedTable
	case 'S':
		return SubjectTable
	case 'D':
		return DataProfile
	case 'C':
		return ComparisonProfile
	}
	return Unknown
}

// Kind tells which of the possible outcomes a Result holds.
type Kind int

const (
	// Null means no value could be obtained, e.g. a transport failure.
	Null Kind = iota
	// Value means the API returned a measurement.
	Value
	// NoData means the API answered 204 No Content.
	NoData
	// Error means the API answered with an unexpected status.
	Error
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "value"
	case NoData:
		return "no_data"
	case Error:
		return "error"
	}
	return "null"
}

// Sentinels written in place of a measurement.
const (
	NoDataSentinel = "no_data"
	ErrorSentinel  = "error"
)

// Result is the outcome of fetching one (zip, table) cell. Exactly one Kind
// is set per cell; Err carries the cause for Null and Error results.
type Result struct {
	Kind  Kind
	Value string
	Err   error
}

// Cell renders the result for a spreadsheet cell. Null results are empty.
func (r Result) Cell() string {
	switch r.Kind {
	case Value:
		return r.Value
	case NoData:
		return NoDataSentinel
	case Error:
		return ErrorSentinel
	}
	return ""
}
