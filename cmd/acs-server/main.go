package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"runtime"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/googleapis/google-cloud-go-testing/bigquery/bqiface"
	"github.com/googleapis/google-cloud-go-testing/storage/stiface"
	"github.com/m-lab/acs-export/bqload"
	"github.com/m-lab/acs-export/config"
	"github.com/m-lab/acs-export/pipeline"
	"github.com/m-lab/go/httpx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
)

var (
	listenAddr string
	apiKey     string

	flags   = config.NewFlags(flag.CommandLine)
	mainCtx = context.Background()
)

func init() {
	flag.StringVar(&listenAddr, "listenaddr", ":8080", "Address to listen on")
	flag.StringVar(&apiKey, "api-key", "", "Census data API key")
}

func makeHTTPServer(listenAddr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:    listenAddr,
		Handler: h,
	}
}

func main() {
	log.SetFlags(log.LUTC | log.Lshortfile | log.LstdFlags)
	conf, err := flags.Load(flag.CommandLine, os.Args[1:])
	rtx.Must(err, "Could not parse flags")
	if conf.TablesFile == "" || conf.ZIPsFile == "" {
		log.Fatalln("Please provide both -tables and -zips.")
	}

	var gcs stiface.Client
	if conf.Bucket != "" {
		gcsClient, err := storage.NewClient(mainCtx)
		rtx.Must(err, "error initializing GCS client")
		gcs = stiface.AdaptClient(gcsClient)
	}
	ex, err := pipeline.NewExporter(mainCtx, conf, apiKey, gcs)
	rtx.Must(err, "Cannot create exporter")

	var loader pipeline.Loader
	if conf.BigQuery.Enabled() {
		bqClient, err := bigquery.NewClient(mainCtx, conf.BigQuery.Project)
		rtx.Must(err, "error initializing BQ client")
		loader = bqload.NewTable(conf.BigQuery.Table, conf.BigQuery.Dataset,
			bqiface.AdaptClient(bqClient))
	}

	// Initialize handlers.
	exportHandler := pipeline.NewHandler(ex, loader, conf)

	// Initialize mux.
	mux := http.NewServeMux()
	mux.Handle("/v0/export", exportHandler)

	log.Printf("GOMAXPROCS is %d", runtime.GOMAXPROCS(0))

	// Start main HTTP server.
	s := makeHTTPServer(listenAddr, mux)
	rtx.Must(httpx.ListenAndServeAsync(s), "Could not start HTTP server")
	defer s.Close()

	// Start Prometheus server for monitoring.
	promServer := prometheusx.MustServeMetrics()
	defer promServer.Close()

	// Keep serving until the context is canceled.
	<-mainCtx.Done()
}
