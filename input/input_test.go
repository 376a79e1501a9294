package input

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m-lab/go/testingx"
)

func TestParseZIPs(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     []ZipRecord
		wantLine int
		wantErr  error
	}{
		{
			name:    "success",
			content: "60119,IL,Kane,Elburn\n60151,IL,Kane,Maple Park\n",
			want: []ZipRecord{
				{ZIP: 60119, City: "Elburn", State: "IL", County: "Kane"},
				{ZIP: 60151, City: "Maple Park", State: "IL", County: "Kane"},
			},
		},
		{
			name:    "success-extra-fields-crlf",
			content: "60119,IL,KANE,ELBURN,6,0\r\n02134,MA,Suffolk,Boston,1,0\r\n",
			want: []ZipRecord{
				{ZIP: 60119, City: "ELBURN", State: "IL", County: "KANE"},
				{ZIP: 2134, City: "Boston", State: "MA", County: "Suffolk"},
			},
		},
		{
			name:     "error-too-few-fields",
			content:  "60119,IL,Kane,Elburn\n60151,IL,Kane\n",
			wantLine: 2,
			wantErr:  ErrTooFewFields,
		},
		{
			name:     "error-not-a-number",
			content:  "ELBURN,IL,Kane,Elburn",
			wantLine: 1,
		},
		{
			name:     "error-blank-line",
			content:  "60119,IL,Kane,Elburn\n\n60151,IL,Kane,Maple Park",
			wantLine: 2,
			wantErr:  ErrTooFewFields,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseZIPs(strings.NewReader(tt.content))
			if tt.wantLine != 0 {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("ParseZIPs() error = %v, want *ParseError", err)
				}
				if pe.Line != tt.wantLine {
					t.Errorf("ParseZIPs() error line = %d, want %d", pe.Line, tt.wantLine)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseZIPs() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			testingx.Must(t, err, "unexpected parse error")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseZIPs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTables(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []TableSpec
		wantErr bool
	}{
		{
			name:    "success",
			content: "S1901_C01_012E,Median household income\nB01003_001E,Total population",
			want: []TableSpec{
				{ID: "S1901_C01_012E", CommonName: "Median household income"},
				{ID: "B01003_001E", CommonName: "Total population"},
			},
		},
		{
			name:    "error-missing-name",
			content: "S1901_C01_012E\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTables(strings.NewReader(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTables() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) && !tt.wantErr {
				t.Errorf("ParseTables() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadZIPFile(t *testing.T) {
	records, err := ReadZIPFile("testdata/zips.txt")
	testingx.Must(t, err, "cannot read zips.txt")
	want := []int{60119, 60151, 60144}
	if got := ZIPCodes(records); !reflect.DeepEqual(got, want) {
		t.Errorf("ZIPCodes() = %v, want %v", got, want)
	}

	_, err = ReadZIPFile("testdata/bad_zips.txt")
	if err == nil {
		t.Errorf("ReadZIPFile() expected error for bad_zips.txt")
	}
	_, err = ReadZIPFile("testdata/missing.txt")
	if err == nil {
		t.Errorf("ReadZIPFile() expected error for a missing file")
	}
}

func TestReadTableFile(t *testing.T) {
	specs, err := ReadTableFile("testdata/tables.txt")
	testingx.Must(t, err, "cannot read tables.txt")
	wantIDs := []string{"S1901_C01_012E", "B01003_001E"}
	wantNames := []string{"Median household income", "Total population"}
	if got := TableIDs(specs); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("TableIDs() = %v, want %v", got, wantIDs)
	}
	if got := CommonNames(specs); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("CommonNames() = %v, want %v", got, wantNames)
	}
}

func TestLabels(t *testing.T) {
	specs := []TableSpec{
		{ID: "S1901_C01_012E", CommonName: "Income"},
		{ID: "B01003_001E", CommonName: "Population"},
		{ID: "S1901_C01_012E", CommonName: "Median income"},
	}
	want := map[string]string{
		"S1901_C01_012E": "Median income",
		"B01003_001E":    "Population",
	}
	if got := Labels(specs); !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestLocations_Resolve(t *testing.T) {
	l := NewLocations([]ZipRecord{
		{ZIP: 60119, City: "Elburn", State: "IL", County: "Kane"},
		{ZIP: 60151, City: "Maple Park", State: "IL", County: "Kane"},
		{ZIP: 60119, City: "Shadowed", State: "IL", County: "Kane"},
	})
	tests := []struct {
		name    string
		zip     int
		want    string
		wantErr error
	}{
		{
			name: "success",
			zip:  60119,
			want: "Elburn, IL - Kane",
		},
		{
			name: "success-second",
			zip:  60151,
			want: "Maple Park, IL - Kane",
		},
		{
			name:    "not-found",
			zip:     10001,
			wantErr: ErrZIPNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Resolve(tt.zip)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatZIP(t *testing.T) {
	if got := FormatZIP(2134); got != "02134" {
		t.Errorf("FormatZIP() = %q, want %q", got, "02134")
	}
}
