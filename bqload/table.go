// Package bqload loads export tables into BigQuery, one row per cell.
package bqload

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"text/template"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/googleapis/google-cloud-go-testing/bigquery/bqiface"
	"github.com/m-lab/acs-export/input"
	"github.com/m-lab/acs-export/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/api/googleapi"
)

var (
	rowsLoadedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acs_export_bigquery_rows_loaded_total",
		Help: "Rows loaded into BigQuery",
	}, []string{"table"})
)

const deleteRowsTpl = "DELETE FROM `{{.Table}}` WHERE state = @state AND year = @year"

// Row is one exported cell as stored in BigQuery.
type Row struct {
	RunID    string     `bigquery:"run_id" json:"run_id"`
	RunDate  civil.Date `bigquery:"run_date" json:"run_date"`
	State    string     `bigquery:"state" json:"state"`
	Year     int64      `bigquery:"year" json:"year"`
	ZIP      string     `bigquery:"zip" json:"zip"`
	Location string     `bigquery:"location" json:"location"`
	TableID  string     `bigquery:"table_id" json:"table_id"`
	Label    string     `bigquery:"label" json:"label"`
	Value    string     `bigquery:"value" json:"value"`
	Status   string     `bigquery:"status" json:"status"`
}

// Table represents a bigquery table holding exported ACS cells.
// It embeds bqiface.Table and extends it with a Load method.
type Table struct {
	bqiface.Table

	// client is the BigQuery client to use.
	client bqiface.Client
}

// NewTable returns a new Table for the destination dataset and table name.
func NewTable(name string, ds string, client bqiface.Client) *Table {
	return &Table{
		Table:  client.Dataset(ds).Table(name),
		client: client,
	}
}

// Rows converts t into BigQuery rows tagged with the run id and date.
func Rows(t *table.Table, runID string, runDate civil.Date, state string, year int) []Row {
	records := t.Records()
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			RunID:    runID,
			RunDate:  runDate,
			State:    state,
			Year:     int64(year),
			ZIP:      input.FormatZIP(r.ZIP),
			Location: r.Location,
			TableID:  r.TableID,
			Label:    r.Label,
			Value:    r.Result.Cell(),
			Status:   r.Result.Kind.String(),
		})
	}
	return rows
}

// encodeRows writes rows as newline-delimited JSON.
func encodeRows(rows []Row) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// deleteRows removes rows previously loaded for (state, year).
func (t *Table) deleteRows(ctx context.Context, state string, year int) error {
	tpl := template.Must(template.New("query").Parse(deleteRowsTpl))
	q := &bytes.Buffer{}
	err := tpl.Execute(q, map[string]string{
		"Table": t.DatasetID() + "." + t.TableID(),
	})
	if err != nil {
		return err
	}
	// Check that table exists.
	_, err = t.client.Dataset(t.DatasetID()).Table(t.TableID()).Metadata(ctx)
	if e, ok := err.(*googleapi.Error); ok && e.Code == http.StatusNotFound {
		// deleting rows from a table that does not exist is a no-op. So, return
		// without error.
		return nil
	}
	log.Printf("Deleting existing rows: %s (state=%s, year=%d)\n", q.String(), state, year)
	query := t.client.Query(q.String())
	qc := bqiface.QueryConfig{}
	qc.Q = q.String()
	qc.Parameters = []bigquery.QueryParameter{
		{Name: "state", Value: state},
		{Name: "year", Value: year},
	}
	query.SetQueryConfig(qc)
	_, err = query.Read(ctx)
	if err != nil {
		log.Printf("Warning: cannot remove previous rows (%v)", err)
	}
	return err
}

// Load replaces the rows for (state, year) with rows. Any rows loaded by a
// previous run for the same state and year are deleted first.
func (t *Table) Load(ctx context.Context, state string, year int, rows []Row) error {
	log.Printf("Loading %d rows into %s\n", len(rows), t.TableID())

	err := t.deleteRows(ctx, state, year)
	if err != nil {
		return err
	}

	buf, err := encodeRows(rows)
	if err != nil {
		return err
	}
	schema, err := bigquery.InferSchema(Row{})
	if err != nil {
		return err
	}
	src := bigquery.NewReaderSource(buf)
	src.SourceFormat = bigquery.JSON
	src.Schema = schema

	start := time.Now()
	job, err := t.LoaderFrom(src).Run(ctx)
	if err != nil {
		return err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	if status.Err() != nil {
		return status.Err()
	}
	rowsLoadedMetric.WithLabelValues(t.FullyQualifiedName()).Add(float64(len(rows)))
	log.Printf("Loaded %d rows into %s in %s", len(rows), t.TableID(),
		time.Since(start).Round(time.Millisecond))
	return nil
}
