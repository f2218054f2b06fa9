package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultFeedURL is the NYT cumulative county-level file.
const DefaultFeedURL = "https://raw.githubusercontent.com/nytimes/covid-19-data/master/us-counties.csv"

// Config holds all run settings, populated from environment variables.
type Config struct {
	FeedURL       string
	FeedTimeout   time.Duration
	ReferencePath string
	OutputDir     string

	// Derived-metric switches.
	Cluster        bool
	DensityMetrics bool
	RollingMean    bool
	Smoothing      bool
	OptimizeOutput bool

	LogLevel    string
	LogFormat   string
	MetricsFile string

	// Optional status server. Empty HTTPAddr disables it.
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional row publisher.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	BatchSize      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	feedTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FEED_TIMEOUT", "2m"))
	if err != nil || feedTimeout <= 0 {
		return nil, errors.New("invalid FEED_TIMEOUT")
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:         sharedcfg.EnvOrDefault("FEED_URL", DefaultFeedURL),
		FeedTimeout:     feedTimeout,
		ReferencePath:   sharedcfg.EnvOrDefault("REFERENCE_PATH", "./data/processed/dem_df_to_merge.csv"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "./data"),
		Smoothing:       true,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsFile:     os.Getenv("METRICS_FILE"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "covid-county-metrics"),
		BatchSize:       batchSize,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"CLUSTER", &cfg.Cluster},
		{"DENSITY_METRICS", &cfg.DensityMetrics},
		{"ROLLING_MEAN", &cfg.RollingMean},
		{"SMOOTHING", &cfg.Smoothing},
		{"OPTIMIZE_OUTPUT", &cfg.OptimizeOutput},
	}
	for _, f := range flags {
		if err := parseBool(f.name, f.dst); err != nil {
			return nil, err
		}
	}

	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if err := parseBool("KAFKA_ENABLED", &cfg.KafkaEnabled); err != nil {
		return nil, err
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.ReferencePath == "" {
		return nil, errors.New("REFERENCE_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// LoadEnvFile adds the variables of a dotenv file to the environment.
// Variables already set in the shell win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// OutputPath is the CSV the run writes: nyt_df.csv, or nyt_df_cluster.csv
// in cluster mode.
func (c *Config) OutputPath() string {
	name := "nyt_df.csv"
	if c.Cluster {
		name = "nyt_df_cluster.csv"
	}
	return filepath.Join(c.OutputDir, name)
}

// parseBool overwrites *dst when the variable is set. Unset keeps the default.
func parseBool(name string, dst *bool) error {
	s := os.Getenv(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return errors.New("invalid " + name)
	}
	*dst = v
	return nil
}
