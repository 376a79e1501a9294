package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/googleapis/google-cloud-go-testing/storage/stiface"
	"github.com/m-lab/acs-export/census"
	"github.com/m-lab/acs-export/config"
	"github.com/m-lab/acs-export/exporter"
	"github.com/m-lab/acs-export/formatter"
	"github.com/m-lab/acs-export/output"
	"github.com/m-lab/go/uploader"
)

var errMissingGCSClient = errors.New("a GCS client is required when a bucket is configured")

// NewExporter wires an exporter for conf: a Census fetcher using apiKey, the
// configured formatter, and a local writer plus a GCS writer when a bucket is
// configured. gcs may be nil when no bucket is configured.
func NewExporter(ctx context.Context, conf config.Config, apiKey string, gcs stiface.Client) (*exporter.Exporter, error) {
	format, err := formatter.ForName(conf.Format)
	if err != nil {
		return nil, err
	}
	writers := output.MultiWriter{output.NewLocalWriter(ctx, conf.OutputDir)}
	if conf.Bucket != "" {
		if gcs == nil {
			return nil, errMissingGCSClient
		}
		writers = append(writers, output.NewGCSWriter(uploader.New(gcs, conf.Bucket)))
	}
	baseURL := conf.CensusURL
	if baseURL == "" {
		baseURL = census.DefaultBaseURL
	}
	client := &http.Client{Timeout: conf.HTTPTimeout}
	fetcher := census.NewFetcher(apiKey, baseURL, client)
	return exporter.New(fetcher, writers, format, conf.Workers), nil
}
