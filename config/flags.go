package config

import (
	"flag"

	"github.com/m-lab/acs-export/census"
	"github.com/m-lab/go/flagx"
	"gopkg.in/yaml.v3"
)

// Flags binds a Config to command line flags, plus a -config flag naming an
// optional YAML (or JSON) file.
type Flags struct {
	Config Config
	File   flagx.File
}

// NewFlags registers every Config field on fs. Flag defaults are the package
// defaults.
func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	c := &f.Config
	fs.Var(&f.File, "config", "YAML or JSON configuration file")
	fs.StringVar(&c.State, "state", "", "Two-letter state abbreviation, e.g. IL")
	fs.StringVar(&c.TablesFile, "tables", "", "Path to the table_id,common_name file")
	fs.StringVar(&c.ZIPsFile, "zips", "", "Path to the zip_code,state,county,city file")
	fs.IntVar(&c.Year, "year", DefaultYear, "ACS 5-year vintage")
	fs.StringVar(&c.Output, "output", DefaultOutput,
		"Output file name; may reference {{.State}} and {{.Year}}")
	fs.StringVar(&c.Format, "format", "xlsx", "Output format: xlsx or csv")
	fs.IntVar(&c.Workers, "workers", DefaultWorkers,
		"Maximum concurrent Census API requests per column")
	fs.StringVar(&c.CensusURL, "census.url", census.DefaultBaseURL,
		"Census data API base URL")
	fs.DurationVar(&c.HTTPTimeout, "http.timeout", DefaultHTTPTimeout,
		"Timeout for each Census API request")
	fs.StringVar(&c.OutputDir, "outdir", ".", "Local directory to write the export to")
	fs.StringVar(&c.Bucket, "bucket", "", "Optional GCS bucket to also upload the export to")
	fs.StringVar(&c.BigQuery.Project, "bq.project", "", "GCP project of the BigQuery destination")
	fs.StringVar(&c.BigQuery.Dataset, "bq.dataset", "", "BigQuery destination dataset")
	fs.StringVar(&c.BigQuery.Table, "bq.table", "", "BigQuery destination table")
	return f
}

// Load parses args and the environment into the registered flags and
// returns the resulting Config. Values come from, in increasing priority:
// flag defaults, the -config file, environment variables and flags.
func (f *Flags) Load(fs *flag.FlagSet, args []string) (Config, error) {
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := flagx.ArgsFromEnv(fs); err != nil {
		return Config{}, err
	}
	if content := f.File.Get(); len(content) > 0 {
		explicit := map[string]string{}
		fs.Visit(func(fl *flag.Flag) {
			if fl.Name != "config" {
				explicit[fl.Name] = fl.Value.String()
			}
		})
		if err := yaml.Unmarshal(content, &f.Config); err != nil {
			return Config{}, err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return Config{}, err
			}
		}
	}
	f.Config.SetDefaults()
	return f.Config, nil
}
