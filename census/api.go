// Package census fetches American Community Survey values for a single ZIP
// code tabulation area from the Census Bureau data API.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultBaseURL is the Census Bureau data API endpoint.
const DefaultBaseURL = "https://api.census.gov"

var (
	// ErrShortResponse is returned when a response has no value row.
	ErrShortResponse = errors.New("response has no value row")
	// ErrNullValue is returned when the requested cell is null.
	ErrNullValue = errors.New("value is null")
)

// zctaPredicate is the escaped "for" predicate for a ZIP code tabulation area.
var zctaPredicate = url.PathEscape("zip code tabulation area")

// StatusError reports a response with an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// query builds the query string for one ZCTA request. The "for" predicate is
// pre-escaped so the colon survives as-is.
func query(get string, zip string, in string, apiKey string) string {
	q := "get=" + url.QueryEscape(get) + "&for=" + zctaPredicate + ":" + zip
	if in != "" {
		q += "&in=" + url.QueryEscape(in)
	}
	if apiKey != "" {
		q += "&key=" + url.QueryEscape(apiKey)
	}
	return q
}

// getRows issues a GET to u and decodes a 200 response body as a table of
// rows. For any other status the body is returned unparsed and rows is nil.
func getRows(ctx context.Context, client *http.Client, u string) (int, [][]interface{}, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, nil, string(body), nil
	}
	var rows [][]interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return resp.StatusCode, nil, "", err
	}
	return resp.StatusCode, rows, "", nil
}

// cellString renders a decoded JSON cell. ok is false for JSON null.
func cellString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return fmt.Sprint(v), true
}
