// Package pipeline runs ACS exports, either once or on demand over HTTP.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/m-lab/acs-export/bqload"
	"github.com/m-lab/acs-export/config"
	"github.com/m-lab/acs-export/exporter"
	"github.com/m-lab/acs-export/table"
)

// Exporter builds and writes one export.
type Exporter interface {
	Export(ctx context.Context, req exporter.Request) (*table.Table, error)
}

// Loader stores an export's cells in a warehouse table.
type Loader interface {
	Load(ctx context.Context, state string, year int, rows []bqload.Row) error
}

// Params are the per-run parameters; everything else comes from the config.
type Params struct {
	State string
	Year  int
}

// Result summarizes a completed run.
type Result struct {
	RunID   string
	Output  string
	Rows    int
	Columns int
}

// OutputPath expands the output name template with the run parameters, e.g.
// "{{.State}}/{{.Year}}/export.xlsx".
func OutputPath(tpl string, p Params) (string, error) {
	t, err := template.New("output").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := t.Execute(buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Run performs one export for p using the files named in conf, then loads
// the result with loader when it is not nil.
func Run(ctx context.Context, ex Exporter, loader Loader, conf config.Config, p Params) (*Result, error) {
	runID := uuid.New().String()
	path, err := OutputPath(conf.Output, p)
	if err != nil {
		return nil, fmt.Errorf("invalid output name %q: %w", conf.Output, err)
	}
	log.Printf("Starting export %s: state=%s year=%d output=%s", runID, p.State, p.Year, path)
	t, err := ex.Export(ctx, exporter.Request{
		State:      p.State,
		TablesPath: conf.TablesFile,
		ZIPsPath:   conf.ZIPsFile,
		Year:       p.Year,
		OutputPath: path,
	})
	if err != nil {
		return nil, err
	}
	if loader != nil {
		rows := bqload.Rows(t, runID, civil.DateOf(time.Now().UTC()), p.State, p.Year)
		if err := loader.Load(ctx, p.State, p.Year, rows); err != nil {
			return nil, fmt.Errorf("cannot load export into BigQuery: %w", err)
		}
	}
	return &Result{
		RunID:   runID,
		Output:  path,
		Rows:    len(t.ZIPs()),
		Columns: len(t.Columns()),
	}, nil
}
