// Package dune executes a pre-registered analytical query against the Dune
// API and canonicalizes the loosely-schemaed result into daily Aave rate
// observations.
package dune

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/internal/normalize"
	"github.com/dobbobalina2/Crypto-US-yields/internal/schema"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

const apiKeyHeader = "X-Dune-API-Key"

// Client talks to the Dune execution API. Query execution has no overall
// deadline: the pipeline blocks until the remote engine finishes or the
// request transport fails.
type Client struct {
	cfg    appconfig.DuneConfig
	apiKey string
	http   *http.Client
	log    *logger.Log
}

// NewClient builds a client for the configured Dune endpoint.
func NewClient(cfg appconfig.DuneConfig, apiKey string) *Client {
	return &Client{
		cfg:    cfg,
		apiKey: apiKey,
		http:   &http.Client{},
		log:    logger.GetLogger(),
	}
}

type executeResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type statusResponse struct {
	State               string `json:"state"`
	IsExecutionFinished bool   `json:"is_execution_finished"`
}

type resultsResponse struct {
	State  string `json:"state"`
	Result struct {
		Rows     []map[string]interface{} `json:"rows"`
		Metadata struct {
			ColumnNames []string `json:"column_names"`
		} `json:"metadata"`
	} `json:"result"`
}

const (
	stateCompleted = "QUERY_STATE_COMPLETED"
	stateFailed    = "QUERY_STATE_FAILED"
	stateCancelled = "QUERY_STATE_CANCELLED"
	stateExpired   = "QUERY_STATE_EXPIRED"
)

// FetchRates runs the query, waits for completion, and returns the
// canonical rate series sorted ascending by date.
func (c *Client) FetchRates(ctx context.Context, queryID int64) ([]models.RateObservation, error) {
	log := c.log.WithComponent("dune_reader").WithFields(logger.Fields{"query_id": queryID})

	executionID, err := c.execute(ctx, queryID)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{"execution_id": executionID}).Info("query execution started")

	if err := c.waitForCompletion(ctx, executionID); err != nil {
		return nil, err
	}

	table, err := c.results(ctx, executionID)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{
		"columns": table.columns,
		"rows":    len(table.rows),
	}).Info("query results materialized")

	return canonicalize(table)
}

func (c *Client) execute(ctx context.Context, queryID int64) (string, error) {
	url := fmt.Sprintf("%s/query/%d/execute", strings.TrimRight(c.cfg.URL, "/"), queryID)
	body, err := c.post(ctx, url)
	if err != nil {
		return "", err
	}

	var resp executeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode execute response: %w", err)
	}
	if resp.ExecutionID == "" {
		return "", fmt.Errorf("execute response missing execution_id")
	}
	return resp.ExecutionID, nil
}

func (c *Client) waitForCompletion(ctx context.Context, executionID string) error {
	url := fmt.Sprintf("%s/execution/%s/status", strings.TrimRight(c.cfg.URL, "/"), executionID)
	for {
		body, err := c.get(ctx, url)
		if err != nil {
			return err
		}

		var status statusResponse
		if err := json.Unmarshal(body, &status); err != nil {
			return fmt.Errorf("decode status response: %w", err)
		}

		switch status.State {
		case stateCompleted:
			return nil
		case stateFailed, stateCancelled, stateExpired:
			return fmt.Errorf("query execution %s ended in state %s", executionID, status.State)
		}
		if status.IsExecutionFinished {
			return fmt.Errorf("query execution %s finished in unexpected state %s", executionID, status.State)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(c.cfg.PollInterval)):
		}
	}
}

type resultTable struct {
	columns []string
	rows    []map[string]interface{}
}

func (c *Client) results(ctx context.Context, executionID string) (resultTable, error) {
	url := fmt.Sprintf("%s/execution/%s/results", strings.TrimRight(c.cfg.URL, "/"), executionID)
	body, err := c.get(ctx, url)
	if err != nil {
		return resultTable{}, err
	}

	var resp resultsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return resultTable{}, fmt.Errorf("decode results response: %w", err)
	}

	columns := resp.Result.Metadata.ColumnNames
	if len(columns) == 0 && len(resp.Result.Rows) > 0 {
		// Older result payloads omit metadata; recover the column set
		// from the first row.
		for name := range resp.Result.Rows[0] {
			columns = append(columns, name)
		}
	}
	return resultTable{columns: columns, rows: resp.Result.Rows}, nil
}

func (c *Client) post(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.TransportError{Source: "dune", URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransportError{Source: "dune", URL: req.URL.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.TransportError{Source: "dune", URL: req.URL.String(), Status: resp.StatusCode}
	}
	return body, nil
}

// canonicalize resolves the date/supply/borrow columns, normalizes units,
// and drops rows whose date cannot be parsed.
func canonicalize(table resultTable) ([]models.RateObservation, error) {
	dateCol, _ := schema.DateResolver().Resolve(table.columns)
	supplyCol, _ := schema.SupplyResolver().Resolve(table.columns)
	borrowCol, _ := schema.BorrowResolver().Resolve(table.columns)

	if dateCol == "" || supplyCol == "" || borrowCol == "" {
		return nil, &models.SchemaResolutionError{
			DateColumn:   dateCol,
			SupplyColumn: supplyCol,
			BorrowColumn: borrowCol,
			Columns:      table.columns,
		}
	}

	logger.GetLogger().WithComponent("dune_reader").WithFields(logger.Fields{
		"date_column":   dateCol,
		"supply_column": supplyCol,
		"borrow_column": borrowCol,
	}).Info("resolved result schema")

	supply := make([]*float64, len(table.rows))
	borrow := make([]*float64, len(table.rows))
	for i, row := range table.rows {
		supply[i] = toFloat(row[supplyCol])
		borrow[i] = toFloat(row[borrowCol])
	}
	supply = normalize.MaybeConvertPercent(supply, "aave_supply_apy")
	borrow = normalize.MaybeConvertPercent(borrow, "aave_borrow_apy")

	out := make([]models.RateObservation, 0, len(table.rows))
	for i, row := range table.rows {
		date, ok := parseDate(row[dateCol])
		if !ok {
			continue
		}
		out = append(out, models.RateObservation{
			Date:      date,
			SupplyAPY: supply[i],
			BorrowAPY: borrow[i],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.000 MST",
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate interprets a raw cell as a calendar day, midnight UTC. Numeric
// cells are treated as unix timestamps (milliseconds when large enough).
func parseDate(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return models.Day(t), true
			}
		}
	case float64:
		if val > 1e12 {
			return models.Day(time.UnixMilli(int64(val))), true
		}
		if val > 0 {
			return models.Day(time.Unix(int64(val), 0)), true
		}
	}
	return time.Time{}, false
}

// toFloat coerces a raw cell to a numeric value; unparseable cells become
// missing.
func toFloat(v interface{}) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return &f
		}
	}
	return nil
}
