// Package config defines the parameters of an ACS export.
package config

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultYear is the ACS 5-year vintage queried when none is configured.
	DefaultYear = 2022
	// DefaultOutput is the name of the exported spreadsheet.
	DefaultOutput = "export.xlsx"
	// DefaultWorkers fetches one cell at a time.
	DefaultWorkers = 1
	// DefaultHTTPTimeout bounds every Census API request.
	DefaultHTTPTimeout = 30 * time.Second
)

var (
	errMissingState  = errors.New("missing state abbreviation")
	errMissingTables = errors.New("missing table id file")
	errMissingZIPs   = errors.New("missing zip code file")
	errInvalidYear   = errors.New("year must be a four digit ACS vintage")
)

// Config is a configuration object for an ACS export.
type Config struct {
	// State is the two-letter state abbreviation the ZIP codes belong to.
	State string `yaml:"state"`
	// TablesFile is the path to the table_id,common_name file.
	TablesFile string `yaml:"tables"`
	// ZIPsFile is the path to the zip_code,state,county,city file.
	ZIPsFile string `yaml:"zips"`
	// Year is the ACS 5-year vintage.
	Year int `yaml:"year"`
	// Output is the exported file name, relative to the output destination.
	Output string `yaml:"output"`
	// Format is the output format: xlsx or csv.
	Format string `yaml:"format"`
	// Workers is the maximum number of concurrent requests per column.
	Workers int `yaml:"workers"`

	// CensusURL is the Census data API base URL.
	CensusURL string `yaml:"censusURL"`
	// HTTPTimeout bounds every Census API request.
	HTTPTimeout time.Duration `yaml:"httpTimeout"`

	// OutputDir is the local directory the export is written to.
	OutputDir string `yaml:"outputDir"`
	// Bucket is an optional GCS bucket the export is also uploaded to.
	Bucket string `yaml:"bucket"`

	// BigQuery is the optional warehouse destination.
	BigQuery BigQuery `yaml:"bigquery"`
}

// BigQuery identifies a destination table. It is disabled when Table is empty.
type BigQuery struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Table   string `yaml:"table"`
}

// Enabled reports whether a destination table is configured.
func (b BigQuery) Enabled() bool {
	return b.Project != "" && b.Dataset != "" && b.Table != ""
}

// Parse decodes a YAML (or JSON) configuration document. Missing fields take
// their default values.
func Parse(content []byte) (Config, error) {
	c := Config{}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return Config{}, err
	}
	c.SetDefaults()
	return c, nil
}

// SetDefaults fills unset fields with their default values.
func (c *Config) SetDefaults() {
	if c.Year == 0 {
		c.Year = DefaultYear
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Format == "" {
		c.Format = "xlsx"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

// Validate checks the parameters every export needs.
func (c Config) Validate() error {
	switch {
	case c.State == "":
		return errMissingState
	case c.TablesFile == "":
		return errMissingTables
	case c.ZIPsFile == "":
		return errMissingZIPs
	case c.Year < 1000 || c.Year > 9999:
		return errInvalidYear
	}
	return nil
}
