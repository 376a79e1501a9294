package census

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/m-lab/acs-export/census/fips"
	"github.com/m-lab/acs-export/input"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acs_export_fetch_total",
		Help: "Number of ACS cells fetched, by table family and outcome",
	}, []string{"family", "outcome"})
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acs_export_fetch_duration_seconds",
		Help:    "Time spent fetching a single ACS cell",
		Buckets: prometheus.DefBuckets,
	}, []string{"family"})
)

// Fetcher retrieves single ACS values for a (zip code, table id) pair.
type Fetcher struct {
	apiKey  string
	baseURL string
	client  *http.Client

	// Detailed serves the Detailed Tables family.
	Detailed ZipcodeQuerier
}

// NewFetcher returns a Fetcher using apiKey against baseURL. If client is nil
// http.DefaultClient is used.
func NewFetcher(apiKey, baseURL string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Fetcher{
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   client,
		Detailed: NewDetailedClient(apiKey, baseURL, client),
	}
}

// Fetch returns the value of tableID for zip. It never fails: every outcome
// is reported through the returned Result.
func (f *Fetcher) Fetch(ctx context.Context, zip int, tableID string, state string, year int) Result {
	family := Classify(tableID)
	start := time.Now()
	var res Result
	switch family {
	case DetailedTable:
		res = f.fetchDetailed(ctx, zip, tableID, state, year)
	case SubjectTable:
		res = f.fetchGroup(ctx, "subject", tableID, zip, year)
	// Profile ids name a whole table (DP02, CP03), not a variable. The
	// cell holds the first value of the group.
	case DataProfile:
		res = f.fetchGroup(ctx, "profile", "group("+tableID+")", zip, year)
	case ComparisonProfile:
		res = f.fetchGroup(ctx, "cprofile", "group("+tableID+")", zip, year)
	default:
		log.Printf("Table id %q does not start with B, S, D, or C", tableID)
		res = Result{Kind: Null, Err: fmt.Errorf("unknown table family: %q", tableID)}
	}
	if family != Unknown {
		fetchDuration.WithLabelValues(family.String()).Observe(time.Since(start).Seconds())
	}
	fetchTotal.WithLabelValues(family.String(), res.Kind.String()).Inc()
	return res
}

func (f *Fetcher) fetchDetailed(ctx context.Context, zip int, tableID, state string, year int) Result {
	stateFIPS, err := fips.State(state)
	if err != nil {
		log.Printf("Cannot fetch %s for %s: %v (%q)", tableID, input.FormatZIP(zip), err, state)
		return Result{Kind: Null, Err: err}
	}
	rows, err := f.Detailed.StateZipcode(ctx, []string{tableID}, stateFIPS, input.FormatZIP(zip), year)
	if err != nil {
		log.Printf("An error occurred getting %s for %s: %v", tableID, input.FormatZIP(zip), err)
		return Result{Kind: Null, Err: err}
	}
	if len(rows) == 0 {
		log.Printf("No rows for %s and table %s", input.FormatZIP(zip), tableID)
		return Result{Kind: Null, Err: ErrShortResponse}
	}
	v, ok := rows[0][tableID]
	if !ok {
		return Result{Kind: Null, Err: ErrNullValue}
	}
	return Result{Kind: Value, Value: v}
}

// fetchGroup queries one of the subject, profile or cprofile endpoints.
func (f *Fetcher) fetchGroup(ctx context.Context, endpoint, get string, zip int, year int) Result {
	u := fmt.Sprintf("%s/data/%d/acs/acs5/%s?%s", f.baseURL, year, endpoint,
		query(get, input.FormatZIP(zip), "", f.apiKey))
	status, rows, body, err := getRows(ctx, f.client, u)
	if err != nil {
		log.Printf("An error occurred calling the API for %s (%s): %v", input.FormatZIP(zip), get, err)
		return Result{Kind: Null, Err: err}
	}
	switch status {
	case http.StatusOK:
		return firstValue(rows)
	case http.StatusNoContent:
		log.Printf("Likely no data for zip code %s and table %s", input.FormatZIP(zip), get)
		return Result{Kind: NoData}
	}
	log.Printf("Error code: %d, %s", status, body)
	return Result{Kind: Error, Err: &StatusError{Code: status, Body: body}}
}

// firstValue returns the first cell of the first value row.
func firstValue(rows [][]interface{}) Result {
	if len(rows) < 2 || len(rows[1]) == 0 {
		return Result{Kind: Null, Err: ErrShortResponse}
	}
	s, ok := cellString(rows[1][0])
	if !ok {
		return Result{Kind: Null, Err: ErrNullValue}
	}
	return Result{Kind: Value, Value: s}
}
