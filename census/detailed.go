package census

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// zctaInStateLastYear is the last ACS vintage in which ZCTAs are nested
// within states. Later vintages reject the "in=state" predicate.
const zctaInStateLastYear = 2019

// ZipcodeQuerier retrieves Detailed Tables rows for one ZCTA.
type ZipcodeQuerier interface {
	StateZipcode(ctx context.Context, fields []string, stateFIPS string, zip string, year int) ([]map[string]string, error)
}

// DetailedClient queries the ACS 5-year Detailed Tables endpoint and returns
// each value row keyed by the header row.
type DetailedClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDetailedClient returns a DetailedClient using the given key, API base
// URL and HTTP client.
func NewDetailedClient(apiKey, baseURL string, client *http.Client) *DetailedClient {
	return &DetailedClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// StateZipcode returns the requested fields for zip. A 204 response yields an
// empty list; any other non-200 status is returned as a *StatusError.
func (c *DetailedClient) StateZipcode(ctx context.Context, fields []string,
	stateFIPS string, zip string, year int) ([]map[string]string, error) {
	in := ""
	if year <= zctaInStateLastYear {
		in = "state:" + stateFIPS
	}
	u := fmt.Sprintf("%s/data/%d/acs/acs5?%s", c.baseURL, year,
		query(strings.Join(fields, ","), zip, in, c.apiKey))
	status, rows, body, err := getRows(ctx, c.client, u)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNoContent:
		return []map[string]string{}, nil
	case status != http.StatusOK:
		return nil, &StatusError{Code: status, Body: body}
	case len(rows) == 0:
		return nil, ErrShortResponse
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i], _ = cellString(h)
	}
	result := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(headers))
		for i, v := range row {
			if i >= len(headers) {
				break
			}
			if s, ok := cellString(v); ok {
				m[headers[i]] = s
			}
		}
		result = append(result, m)
	}
	return result, nil
}
