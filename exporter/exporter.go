// Package exporter assembles ACS values for a list of ZIP codes into a table
// and writes it out as a spreadsheet.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/m-lab/acs-export/census"
	"github.com/m-lab/acs-export/config"
	"github.com/m-lab/acs-export/formatter"
	"github.com/m-lab/acs-export/input"
	"github.com/m-lab/acs-export/output"
	"github.com/m-lab/acs-export/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	exportRowsMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acs_export_rows",
		Help: "Number of rows in the last export, by state",
	}, []string{"state"})
	exportDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acs_export_duration_seconds",
		Help:    "Time spent building and writing an export",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"state"})
)

var errNoZIPs = errors.New("zip code file has no records")

// Fetcher returns the value of a single (zip code, table id) cell.
type Fetcher interface {
	Fetch(ctx context.Context, zip int, tableID string, state string, year int) census.Result
}

// Request describes one export.
type Request struct {
	State      string
	TablesPath string
	ZIPsPath   string
	Year       int
	// OutputPath is the file name passed to the output writer.
	OutputPath string
}

// Exporter builds export tables and writes them through an output.Writer.
type Exporter struct {
	fetcher Fetcher
	output  output.Writer
	format  formatter.Formatter
	workers int
}

// New generates a new Exporter. workers bounds the number of concurrent
// fetches per column; values below 2 fetch sequentially.
func New(fetcher Fetcher, wr output.Writer, format formatter.Formatter, workers int) *Exporter {
	return &Exporter{
		fetcher: fetcher,
		output:  wr,
		format:  format,
		workers: workers,
	}
}

// Export builds the table described by req, marshals it with the configured
// formatter and writes it to req.OutputPath. Input decoding and writing
// errors are returned; per-cell fetch failures are recorded in the table.
func (ex *Exporter) Export(ctx context.Context, req Request) (*table.Table, error) {
	start := time.Now()
	t, err := ex.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	content, err := ex.format.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal table: %w", err)
	}
	path := req.OutputPath
	if path == "" {
		path = config.DefaultOutput
	}
	log.Printf("Writing %s (%d rows, %d bytes)", path, len(t.ZIPs()), len(content))
	if err := ex.output.Write(ctx, path, content); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", path, err)
	}
	exportRowsMetric.WithLabelValues(req.State).Set(float64(len(t.ZIPs())))
	exportDurationMetric.WithLabelValues(req.State).Observe(time.Since(start).Seconds())
	return t, nil
}

// Build decodes both input files once and fills a table with a Location
// column and one column per table id.
func (ex *Exporter) Build(ctx context.Context, req Request) (*table.Table, error) {
	year := req.Year
	if year == 0 {
		year = config.DefaultYear
	}
	records, err := input.ReadZIPFile(req.ZIPsPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errNoZIPs
	}
	specs, err := input.ReadTableFile(req.TablesPath)
	if err != nil {
		return nil, err
	}
	t := table.New(input.ZIPCodes(records), input.TableIDs(specs))
	zips := t.ZIPs()

	locations := input.NewLocations(records)
	for _, zip := range zips {
		loc, err := locations.Resolve(zip)
		if err != nil {
			return nil, err
		}
		t.SetLocation(zip, loc)
	}

	ids := t.TableIDs()
	for i, id := range ids {
		log.Printf("Fetching %s (%d/%d) for %d zip codes...", id, i+1, len(ids), len(zips))
		t.AddColumn(ex.Column(ctx, req.State, id, zips, year))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	t.SetLabels(input.Labels(specs))
	return t, nil
}

// Column fetches tableID for every zip code. The returned column has exactly
// one result per distinct zip code.
func (ex *Exporter) Column(ctx context.Context, state string, tableID string, zips []int, year int) table.Column {
	col := table.Column{
		TableID: tableID,
		Values:  make(map[int]census.Result, len(zips)),
	}
	if ex.workers < 2 {
		for _, zip := range zips {
			col.Values[zip] = ex.fetcher.Fetch(ctx, zip, tableID, state, year)
		}
		return col
	}

	mu := sync.Mutex{}
	g := errgroup.Group{}
	g.SetLimit(ex.workers)
	for _, zip := range zips {
		zip := zip
		g.Go(func() error {
			r := ex.fetcher.Fetch(ctx, zip, tableID, state, year)
			mu.Lock()
			col.Values[zip] = r
			mu.Unlock()
			return nil
		})
	}
	// Fetch never fails, so neither does Wait.
	g.Wait()
	return col
}
