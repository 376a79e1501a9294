package config

import (
	"flag"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/m-lab/acs-export/census"
	"github.com/m-lab/go/testingx"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Config
		wantErr bool
	}{
		{
			name: "yaml",
			content: `
state: IL
tables: table_profile_id_list.txt
zips: zip_code_data.txt
year: 2021
workers: 4
httpTimeout: 45s
bucket: acs-exports
bigquery:
  project: mlab-sandbox
  dataset: census
  table: acs_zip
`,
			want: Config{
				State:       "IL",
				TablesFile:  "table_profile_id_list.txt",
				ZIPsFile:    "zip_code_data.txt",
				Year:        2021,
				Output:      DefaultOutput,
				Format:      "xlsx",
				Workers:     4,
				HTTPTimeout: 45 * time.Second,
				OutputDir:   ".",
				Bucket:      "acs-exports",
				BigQuery: BigQuery{
					Project: "mlab-sandbox",
					Dataset: "census",
					Table:   "acs_zip",
				},
			},
		},
		{
			name:    "json-defaults",
			content: `{"state": "IL", "tables": "t.txt", "zips": "z.txt", "format": "csv"}`,
			want: Config{
				State:       "IL",
				TablesFile:  "t.txt",
				ZIPsFile:    "z.txt",
				Year:        DefaultYear,
				Output:      DefaultOutput,
				Format:      "csv",
				Workers:     DefaultWorkers,
				HTTPTimeout: DefaultHTTPTimeout,
				OutputDir:   ".",
			},
		},
		{
			name:    "invalid",
			content: "state: [IL",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" && !tt.wantErr {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{State: "IL", TablesFile: "t.txt", ZIPsFile: "z.txt", Year: 2022}
	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "missing-state", modify: func(c *Config) { c.State = "" }, want: errMissingState},
		{name: "missing-tables", modify: func(c *Config) { c.TablesFile = "" }, want: errMissingTables},
		{name: "missing-zips", modify: func(c *Config) { c.ZIPsFile = "" }, want: errMissingZIPs},
		{name: "bad-year", modify: func(c *Config) { c.Year = 22 }, want: errInvalidYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			if err := c.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBigQuery_Enabled(t *testing.T) {
	if (BigQuery{}).Enabled() {
		t.Errorf("Enabled() = true for an empty destination")
	}
	if !(BigQuery{Project: "p", Dataset: "d", Table: "t"}).Enabled() {
		t.Errorf("Enabled() = false for a full destination")
	}
}

func TestFlags_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "state: WI\nzips: zips.txt\ntables: tables.txt\nyear: 2019\nworkers: 2\n"
	testingx.Must(t, ioutil.WriteFile(path, []byte(content), 0644), "cannot write config")
	t.Setenv("WORKERS", "6")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := NewFlags(fs)
	got, err := f.Load(fs, []string{"-config", path, "-year", "2021", "-format", "csv"})
	testingx.Must(t, err, "cannot load flags")

	want := Config{
		State:       "WI",
		TablesFile:  "tables.txt",
		ZIPsFile:    "zips.txt",
		Year:        2021,
		Output:      DefaultOutput,
		Format:      "csv",
		Workers:     6,
		CensusURL:   census.DefaultBaseURL,
		HTTPTimeout: DefaultHTTPTimeout,
		OutputDir:   ".",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlags_LoadNoFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := NewFlags(fs)
	got, err := f.Load(fs, []string{"-state", "IL", "-zips", "z.txt", "-tables", "t.txt"})
	testingx.Must(t, err, "cannot load flags")
	if got.State != "IL" || got.Year != DefaultYear || got.Output != DefaultOutput {
		t.Errorf("Load() = %+v", got)
	}
	testingx.Must(t, got.Validate(), "loaded config is invalid")
}
