package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

func duneServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query/4280536/execute":
			fmt.Fprint(w, `{"execution_id":"exec-e2e"}`)
		case "/execution/exec-e2e/status":
			fmt.Fprint(w, `{"state":"QUERY_STATE_COMPLETED","is_execution_finished":true}`)
		case "/execution/exec-e2e/results":
			fmt.Fprint(w, `{"result":{
				"metadata":{"column_names":["block_date","supply_rate","borrow_rate"]},
				"rows":[
					{"block_date":"2024-01-01","supply_rate":0.05,"borrow_rate":0.07},
					{"block_date":"2024-01-02","supply_rate":0.05,"borrow_rate":0.07},
					{"block_date":"2024-01-03","supply_rate":0.06,"borrow_rate":0.08}
				]}}`)
		default:
			t.Errorf("unexpected dune path %s", r.URL.Path)
		}
	}))
}

func fredServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("observation_start"); got != "2024-01-01" {
			t.Errorf("expected observation_start 2024-01-01, got %q", got)
		}
		if r.URL.Query().Get("series_id") == "DGS10" {
			fmt.Fprint(w, `{"count":2,"offset":0,"limit":100000,"observations":[
				{"date":"2024-01-01","value":"4.0"},
				{"date":"2024-01-03","value":"4.2"}
			]}`)
			return
		}
		fmt.Fprint(w, `{"count":0,"offset":0,"limit":100000,"observations":[]}`)
	}))
}

func testConfig(duneURL, fredURL, outputPath string) *appconfig.Config {
	return &appconfig.Config{
		App: appconfig.AppConfig{Name: "crypto-us-yields", Version: "test"},
		Source: appconfig.SourceConfig{
			Dune: appconfig.DuneConfig{URL: duneURL, QueryID: 4280536, PollInterval: appconfig.Duration(time.Millisecond)},
			Fred: appconfig.FredConfig{URL: fredURL, PageLimit: 100000, RequestsPerMinute: 100000},
		},
		Output: appconfig.OutputConfig{Path: outputPath, Compression: "snappy"},
	}
}

type joinedRecord struct {
	Date          int64    `parquet:"name=date, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	AaveSupplyAPY *float64 `parquet:"name=aave_supply_apy, type=DOUBLE, repetitiontype=OPTIONAL"`
	AaveBorrowAPY *float64 `parquet:"name=aave_borrow_apy, type=DOUBLE, repetitiontype=OPTIONAL"`

	Yield6M  *float64 `parquet:"name=yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield2Y  *float64 `parquet:"name=yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield5Y  *float64 `parquet:"name=yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield10Y *float64 `parquet:"name=yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`

	SupplyMinus6M  *float64 `parquet:"name=supply_minus_yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus2Y  *float64 `parquet:"name=supply_minus_yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus5Y  *float64 `parquet:"name=supply_minus_yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus10Y *float64 `parquet:"name=supply_minus_yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`

	BorrowMinus6M  *float64 `parquet:"name=borrow_minus_yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus2Y  *float64 `parquet:"name=borrow_minus_yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus5Y  *float64 `parquet:"name=borrow_minus_yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus10Y *float64 `parquet:"name=borrow_minus_yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func TestRunEndToEndFilled(t *testing.T) {
	dune := duneServer(t)
	defer dune.Close()
	fred := fredServer(t)
	defer fred.Close()

	output := filepath.Join(t.TempDir(), "joined.parquet")
	cfg := testConfig(dune.URL, fred.URL, output)
	p := New(cfg, appconfig.Credentials{DuneAPIKey: "d", FredAPIKey: "f"})

	result, err := p.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Rows != 3 {
		t.Fatalf("expected 3 rows, got %d", result.Rows)
	}
	if result.OutputPath != output {
		t.Fatalf("unexpected output path %q", result.OutputPath)
	}

	fr, err := local.NewLocalFileReader(output)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(joinedRecord), 1)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer pr.ReadStop()

	rows := make([]joinedRecord, 3)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read: %v", err)
	}

	// Supply rates were decimals and must have been rescaled to percent.
	if rows[0].AaveSupplyAPY == nil || *rows[0].AaveSupplyAPY != 5.0 {
		t.Fatalf("expected supply 5.0, got %v", rows[0].AaveSupplyAPY)
	}
	// 2024-01-02 has no published 10y yield; forward-fill carries 4.0 and
	// the borrow spread is 7.0 - 4.0.
	mid := rows[1]
	if mid.Yield10Y == nil || *mid.Yield10Y != 4.0 {
		t.Fatalf("expected forward-filled 4.0, got %v", mid.Yield10Y)
	}
	if mid.BorrowMinus10Y == nil || *mid.BorrowMinus10Y != 3.0 {
		t.Fatalf("expected borrow spread 3.0, got %v", mid.BorrowMinus10Y)
	}
	if rows[2].Yield10Y == nil || *rows[2].Yield10Y != 4.2 {
		t.Fatalf("expected fresh 4.2 on last day, got %v", rows[2].Yield10Y)
	}
}

func TestRunStrictMode(t *testing.T) {
	dune := duneServer(t)
	defer dune.Close()
	fred := fredServer(t)
	defer fred.Close()

	output := filepath.Join(t.TempDir(), "joined.parquet")
	cfg := testConfig(dune.URL, fred.URL, output)
	p := New(cfg, appconfig.Credentials{DuneAPIKey: "d", FredAPIKey: "f"})

	result, err := p.Run(context.Background(), Options{NoFillYields: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Only 01-01 and 01-03 exist in the yield frame.
	if result.Rows != 2 {
		t.Fatalf("expected 2 strict rows, got %d", result.Rows)
	}
}

type emptyRates struct{}

func (emptyRates) FetchRates(context.Context, int64) ([]models.RateObservation, error) {
	return nil, nil
}

func TestRunEmptyRatesIsFatal(t *testing.T) {
	cfg := testConfig("http://unused", "http://unused", filepath.Join(t.TempDir(), "out.parquet"))
	p := New(cfg, appconfig.Credentials{DuneAPIKey: "d", FredAPIKey: "f"})
	p.rates = emptyRates{}

	_, err := p.Run(context.Background(), Options{})
	var emptyErr *models.EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
}

type failingYields struct{}

func (failingYields) BuildYieldFrame(context.Context, string) (models.YieldFrame, error) {
	return nil, &models.TransportError{Source: "fred:DGS10", URL: "http://unused", Status: 500}
}

func TestRunNoArtifactOnUpstreamFailure(t *testing.T) {
	dune := duneServer(t)
	defer dune.Close()

	output := filepath.Join(t.TempDir(), "out.parquet")
	cfg := testConfig(dune.URL, "http://unused", output)
	p := New(cfg, appconfig.Credentials{DuneAPIKey: "d", FredAPIKey: "f"})
	p.yields = failingYields{}

	if _, err := p.Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected upstream failure to propagate")
	}
	if _, err := local.NewLocalFileReader(output); err == nil {
		t.Fatal("expected no artifact to be written on failure")
	}
}
