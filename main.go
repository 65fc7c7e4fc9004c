package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/internal/pipeline"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	queryID := flag.Int64("query-id", 0, "Dune query ID (0 uses the configured default)")
	output := flag.String("output", "", "Output parquet path (empty uses the configured default)")
	noFill := flag.Bool("no-ffill-yields", false, "Use strict inner join instead of forward-filled daily yields")

	flag.Parse()

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	}).Info("starting yield-join pipeline")

	creds, err := appconfig.LoadCredentials()
	if err != nil {
		log.WithError(err).Error("missing credentials")
		os.Exit(1)
	}

	p := pipeline.New(cfg, creds)
	result, err := p.Run(context.Background(), pipeline.Options{
		QueryID:      *queryID,
		OutputPath:   *output,
		NoFillYields: *noFill,
	})
	if err != nil {
		logFatal(log, err)
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"rows":     result.Rows,
		"output":   result.OutputPath,
		"min_date": result.MinDate.Format("2006-01-02"),
		"max_date": result.MaxDate.Format("2006-01-02"),
	}).Info("wrote joined dataset")
}

// logFatal names the failing stage so the diagnostic points somewhere
// actionable.
func logFatal(log *logger.Log, err error) {
	var schemaErr *models.SchemaResolutionError
	var emptyErr *models.EmptyResultError
	var transportErr *models.TransportError

	switch {
	case errors.As(err, &schemaErr):
		log.WithError(err).Error("schema resolution failed")
	case errors.As(err, &emptyErr):
		log.WithError(err).Error("remote source returned no usable rows")
	case errors.As(err, &transportErr):
		log.WithError(err).WithFields(logger.Fields{
			"source": transportErr.Source,
		}).Error("remote request failed")
	default:
		log.WithError(err).Error("pipeline failed")
	}
}
