package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/dobbobalina2/Crypto-US-yields/config"
	"github.com/dobbobalina2/Crypto-US-yields/logger"
)

// UploadToS3 copies the written artifact to the configured bucket under
// <prefix>/<timestamp>-<uuid>.parquet. It runs only after a successful
// local write, so the local file always exists when this fails.
func UploadToS3(ctx context.Context, cfg appconfig.S3Config, path string) (string, error) {
	log := logger.GetLogger().WithComponent("s3_uploader")

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "crypto_us_yields"
	}
	key := filepath.ToSlash(filepath.Join(
		prefix,
		time.Now().UTC().Format("20060102150405")+"-"+uuid.NewString()+".parquet",
	))

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	log.WithFields(logger.Fields{
		"bucket": cfg.Bucket,
		"key":    key,
		"bytes":  len(data),
	}).Info("artifact uploaded")
	return key, nil
}
