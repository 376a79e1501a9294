package main

import (
	"context"
	"flag"
	"log"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/googleapis/google-cloud-go-testing/bigquery/bqiface"
	"github.com/googleapis/google-cloud-go-testing/storage/stiface"
	"github.com/m-lab/acs-export/bqload"
	"github.com/m-lab/acs-export/config"
	"github.com/m-lab/acs-export/pipeline"
	"github.com/m-lab/go/rtx"
)

var (
	apiKey string

	flags   = config.NewFlags(flag.CommandLine)
	mainCtx = context.Background()
)

func init() {
	flag.StringVar(&apiKey, "api-key", "", "Census data API key")
}

func main() {
	log.SetFlags(log.LUTC | log.Lshortfile | log.LstdFlags)
	conf, err := flags.Load(flag.CommandLine, os.Args[1:])
	rtx.Must(err, "Could not parse flags")
	rtx.Must(conf.Validate(), "Invalid configuration")
	if apiKey == "" {
		log.Println("No Census API key provided (-api-key or API_KEY), requests may be throttled")
	}

	var gcs stiface.Client
	if conf.Bucket != "" {
		gcsClient, err := storage.NewClient(mainCtx)
		rtx.Must(err, "error initializing GCS client")
		defer gcsClient.Close()
		gcs = stiface.AdaptClient(gcsClient)
	}
	ex, err := pipeline.NewExporter(mainCtx, conf, apiKey, gcs)
	rtx.Must(err, "Cannot create exporter")

	var loader pipeline.Loader
	if conf.BigQuery.Enabled() {
		bqClient, err := bigquery.NewClient(mainCtx, conf.BigQuery.Project)
		rtx.Must(err, "error initializing BQ client")
		defer bqClient.Close()
		loader = bqload.NewTable(conf.BigQuery.Table, conf.BigQuery.Dataset,
			bqiface.AdaptClient(bqClient))
	}

	res, err := pipeline.Run(mainCtx, ex, loader, conf, pipeline.Params{
		State: conf.State,
		Year:  conf.Year,
	})
	rtx.Must(err, "Export failed")
	log.Printf("Export %s done: %s (%d rows, %d columns)", res.RunID, res.Output,
		res.Rows, res.Columns)
}
