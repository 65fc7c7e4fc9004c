// Package metrics publishes per-run pipeline metrics to CloudWatch. A
// metrics failure is never fatal: the artifact is already on disk by the
// time anything here runs.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
)

// RunStats summarizes one completed pipeline run.
type RunStats struct {
	RowsWritten  int
	PagesFetched int
	Duration     time.Duration
}

// PublishRunStats sends the run summary to CloudWatch under the configured
// namespace. Errors are logged as warnings and swallowed.
func PublishRunStats(ctx context.Context, cfg appconfig.CloudWatchConfig, stats RunStats) {
	log := logger.GetLogger().WithComponent("cloudwatch")

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.WithError(err).Warn("failed to load AWS configuration; run metrics skipped")
		return
	}

	client := cloudwatch.NewFromConfig(awsCfg)
	now := time.Now().UTC()
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String("RowsWritten"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(stats.RowsWritten)),
		},
		{
			MetricName: aws.String("PagesFetched"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(stats.PagesFetched)),
		},
		{
			MetricName: aws.String("RunDurationSeconds"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitSeconds,
			Value:      aws.Float64(stats.Duration.Seconds()),
		},
	}

	_, err = client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(cfg.Namespace),
		MetricData: data,
	})
	if err != nil {
		log.WithError(err).Warn("failed to publish run metrics")
		return
	}

	log.WithFields(logger.Fields{
		"namespace":     cfg.Namespace,
		"rows_written":  stats.RowsWritten,
		"pages_fetched": stats.PagesFetched,
	}).Info("run metrics published")
}
