// Package pipeline wires the stages of the yield-join batch run: Aave rate
// retrieval, Treasury yield retrieval, calendar reconciliation, spread
// derivation, persistence. Stages run strictly in sequence; any fatal error
// aborts the run before the writer is reached, so no partial artifact is
// ever produced.
package pipeline

import (
	"context"
	"time"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/internal/metrics"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
	"github.com/dobbobalina2/Crypto-US-yields/processor"
	"github.com/dobbobalina2/Crypto-US-yields/reader/dune"
	"github.com/dobbobalina2/Crypto-US-yields/reader/fred"
	"github.com/dobbobalina2/Crypto-US-yields/writer"
)

// Options select per-run behaviour on top of the static configuration.
type Options struct {
	QueryID    int64
	OutputPath string
	// NoFillYields switches the reconciler to the strict inner join.
	NoFillYields bool
}

// Result summarizes a successful run.
type Result struct {
	Rows       int
	MinDate    time.Time
	MaxDate    time.Time
	OutputPath string
	S3Key      string
}

// rateSource and yieldSource let tests substitute the remote adapters.
type rateSource interface {
	FetchRates(ctx context.Context, queryID int64) ([]models.RateObservation, error)
}

type yieldSource interface {
	BuildYieldFrame(ctx context.Context, start string) (models.YieldFrame, error)
}

// Pipeline is a single-shot batch run over the configured sources.
type Pipeline struct {
	cfg    *appconfig.Config
	rates  rateSource
	yields yieldSource
	fred   *fred.Client
	log    *logger.Log
}

// New builds a pipeline from configuration and credentials.
func New(cfg *appconfig.Config, creds appconfig.Credentials) *Pipeline {
	fredClient := fred.NewClient(cfg.Source.Fred, creds.FredAPIKey)
	return &Pipeline{
		cfg:    cfg,
		rates:  dune.NewClient(cfg.Source.Dune, creds.DuneAPIKey),
		yields: fredClient,
		fred:   fredClient,
		log:    logger.GetLogger(),
	}
}

// Run executes the full pipeline and returns a run summary. Fatal errors
// propagate unchanged so the caller can classify them for diagnostics.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()
	log := p.log.WithComponent("pipeline")

	queryID := opts.QueryID
	if queryID <= 0 {
		queryID = p.cfg.Source.Dune.QueryID
	}
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = p.cfg.Output.Path
	}

	rates, err := p.rates.FetchRates(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, &models.EmptyResultError{Source: "dune query"}
	}

	start := rates[0].Date
	for _, r := range rates[1:] {
		if r.Date.Before(start) {
			start = r.Date
		}
	}

	yields, err := p.yields.BuildYieldFrame(ctx, start.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	joined := processor.Reconcile(rates, yields, !opts.NoFillYields)
	joined = processor.AddSpreads(joined)

	p.logSummary(joined)

	if err := writer.WriteJoinedFrame(joined, outputPath, p.cfg.Output.Compression); err != nil {
		return nil, err
	}

	result := &Result{
		Rows:       len(joined),
		OutputPath: outputPath,
	}
	if len(joined) > 0 {
		result.MinDate = joined[0].Date
		result.MaxDate = joined[len(joined)-1].Date
	}

	if p.cfg.Storage.S3.Enabled {
		key, err := writer.UploadToS3(ctx, p.cfg.Storage.S3, outputPath)
		if err != nil {
			return nil, err
		}
		result.S3Key = key
	}

	if p.cfg.Metrics.CloudWatch.Enabled {
		stats := metrics.RunStats{
			RowsWritten: len(joined),
			Duration:    time.Since(started),
		}
		if p.fred != nil {
			stats.PagesFetched = p.fred.PagesFetched
		}
		metrics.PublishRunStats(ctx, p.cfg.Metrics.CloudWatch, stats)
	}

	log.WithFields(logger.Fields{
		"rows":     result.Rows,
		"output":   result.OutputPath,
		"duration": time.Since(started).String(),
	}).Info("pipeline completed")
	return result, nil
}

// logSummary reports the final frame's shape and per-spread extremes, the
// quickest sanity check that units and joins came out right.
func (p *Pipeline) logSummary(frame models.JoinedFrame) {
	log := p.log.WithComponent("pipeline")
	if len(frame) == 0 {
		log.Warn("joined frame is empty")
		return
	}

	log.WithFields(logger.Fields{
		"rows":     len(frame),
		"min_date": frame[0].Date.Format("2006-01-02"),
		"max_date": frame[len(frame)-1].Date.Format("2006-01-02"),
	}).Info("joined frame built")

	for _, tenor := range models.Tenors {
		t := tenor
		supplyMin, supplyMax := spreadExtremes(frame, func(r *models.JoinedRow) *float64 { return r.SupplySpread(t) })
		borrowMin, borrowMax := spreadExtremes(frame, func(r *models.JoinedRow) *float64 { return r.BorrowSpread(t) })
		log.WithFields(logger.Fields{
			"tenor":      string(tenor),
			"supply_min": supplyMin,
			"supply_max": supplyMax,
			"borrow_min": borrowMin,
			"borrow_max": borrowMax,
		}).Debug("spread extremes")
	}
}

func spreadExtremes(frame models.JoinedFrame, pick func(*models.JoinedRow) *float64) (min, max float64) {
	first := true
	for i := range frame {
		v := pick(&frame[i])
		if v == nil {
			continue
		}
		if first || *v < min {
			min = *v
		}
		if first || *v > max {
			max = *v
		}
		first = false
	}
	return min, max
}
