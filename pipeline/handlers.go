package pipeline

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/m-lab/acs-export/config"
)

// Handler runs an export for every accepted request. Only one export runs
// at a time.
type Handler struct {
	exporter Exporter
	loader   Loader
	config   config.Config

	pipelineCanRun chan bool
}

type pipelineResult struct {
	RunID   string   `json:"runID,omitempty"`
	Output  string   `json:"output,omitempty"`
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Errors  []string `json:"errors"`
}

// NewHandler returns a new Handler. loader may be nil.
func NewHandler(exporter Exporter, loader Loader, config config.Config) *Handler {
	canRun := make(chan bool, 1)
	canRun <- true
	return &Handler{
		exporter:       exporter,
		loader:         loader,
		config:         config,
		pipelineCanRun: canRun,
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, statusCode int, res *pipelineResult) {
	if res.Errors == nil {
		res.Errors = []string{}
	}
	b, err := json.Marshal(res)
	if err != nil {
		log.Printf("Cannot marshal pipeline result: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}

// ServeHTTP handles requests to the /v0/export endpoint.
// This endpoint runs a complete export: every ZIP code in the configured ZIP
// file is fetched for every configured table id, the spreadsheet is written
// and, if configured, the cells are loaded into BigQuery.
//
// The querystring parameters are:
// - state: the state abbreviation (defaults to the configured state)
// - year: the ACS vintage (defaults to the configured year)
//
// This endpoint accepts only POST requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeResult(w, http.StatusMethodNotAllowed, &pipelineResult{
			Errors: []string{http.StatusText(http.StatusMethodNotAllowed)},
		})
		return
	}
	p := Params{State: h.config.State, Year: h.config.Year}
	if state := r.URL.Query().Get("state"); state != "" {
		p.State = state
	}
	if p.State == "" {
		h.writeResult(w, http.StatusBadRequest, &pipelineResult{
			Errors: []string{errMissingState.Error()},
		})
		return
	}
	if year := r.URL.Query().Get("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1000 || y > 9999 {
			h.writeResult(w, http.StatusBadRequest, &pipelineResult{
				Errors: []string{errInvalidYear.Error()},
			})
			return
		}
		p.Year = y
	}
	if p.Year == 0 {
		p.Year = config.DefaultYear
	}

	select {
	case <-h.pipelineCanRun:
		defer func() { h.pipelineCanRun <- true }()
	default:
		h.writeResult(w, http.StatusConflict, &pipelineResult{
			Errors: []string{errAlreadyRunning.Error()},
		})
		return
	}

	res, err := Run(r.Context(), h.exporter, h.loader, h.config, p)
	if err != nil {
		log.Printf("Export for %s/%d failed: %v", p.State, p.Year, err)
		h.writeResult(w, http.StatusInternalServerError, &pipelineResult{
			Errors: []string{err.Error()},
		})
		return
	}
	h.writeResult(w, http.StatusOK, &pipelineResult{
		RunID:   res.RunID,
		Output:  res.Output,
		Rows:    res.Rows,
		Columns: res.Columns,
	})
}
