package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dobbobalina2/Crypto-US-yields/models"
)

const (
	// EnvDuneAPIKey names the environment variable carrying the Dune
	// credential.
	EnvDuneAPIKey = "DUNE_API_KEY"
	// EnvFredAPIKey names the environment variable carrying the FRED
	// credential.
	EnvFredAPIKey = "FRED_API_KEY"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	Dune DuneConfig `yaml:"dune"`
	Fred FredConfig `yaml:"fred"`
}

// Duration supports yaml values like "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like '2s': %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type DuneConfig struct {
	URL          string   `yaml:"url"`
	QueryID      int64    `yaml:"query_id"`
	PollInterval Duration `yaml:"poll_interval"`
}

type FredConfig struct {
	URL               string `yaml:"url"`
	PageLimit         int    `yaml:"page_limit"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type OutputConfig struct {
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Region    string `yaml:"region"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Credentials holds the per-source API keys, supplied only through the
// process environment.
type Credentials struct {
	DuneAPIKey string
	FredAPIKey string
}

// LoadCredentials reads both required API keys from the environment. A
// missing key is a fatal configuration error, reported before any network
// call is attempted.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		DuneAPIKey: strings.TrimSpace(os.Getenv(EnvDuneAPIKey)),
		FredAPIKey: strings.TrimSpace(os.Getenv(EnvFredAPIKey)),
	}

	var missing []string
	if creds.DuneAPIKey == "" {
		missing = append(missing, EnvDuneAPIKey)
	}
	if creds.FredAPIKey == "" {
		missing = append(missing, EnvFredAPIKey)
	}
	if len(missing) > 0 {
		return Credentials{}, &models.ConfigurationError{Missing: missing}
	}
	return creds, nil
}

func LoadConfig(path string) (*Config, error) {
	path = resolveEnvSpecificPath(path, "config/config.yml", map[string]string{
		EnvironmentProduction: "config/config.production.yml",
		EnvironmentStaging:    "config/config.staging.yml",
	})

	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Source: SourceConfig{
			Dune: DuneConfig{
				URL:          "https://api.dune.com/api/v1",
				QueryID:      4280536,
				PollInterval: Duration(2 * time.Second),
			},
			Fred: FredConfig{
				URL:               "https://api.stlouisfed.org/fred/series/observations",
				PageLimit:         100000,
				RequestsPerMinute: 120,
			},
		},
		Output: OutputConfig{
			Path:        "data/crypto_us_yields.parquet",
			Compression: "snappy",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if cfg.App.Version == "" {
		return fmt.Errorf("app.version is required")
	}

	if cfg.Source.Dune.URL == "" {
		return fmt.Errorf("source.dune.url is required")
	}
	if cfg.Source.Dune.QueryID <= 0 {
		return fmt.Errorf("source.dune.query_id must be greater than 0")
	}
	if cfg.Source.Dune.PollInterval <= 0 {
		return fmt.Errorf("source.dune.poll_interval must be greater than 0")
	}

	if cfg.Source.Fred.URL == "" {
		return fmt.Errorf("source.fred.url is required")
	}
	if cfg.Source.Fred.PageLimit <= 0 {
		return fmt.Errorf("source.fred.page_limit must be greater than 0")
	}
	if cfg.Source.Fred.RequestsPerMinute <= 0 {
		return fmt.Errorf("source.fred.requests_per_minute must be greater than 0")
	}

	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	switch cfg.Output.Compression {
	case "", "snappy", "gzip", "none":
	default:
		return fmt.Errorf("output.compression '%s' is invalid", cfg.Output.Compression)
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when CloudWatch is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
