package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultFeedURL, cfg.FeedURL)
	assert.Equal(t, 2*time.Minute, cfg.FeedTimeout)
	assert.Equal(t, "./data/processed/dem_df_to_merge.csv", cfg.ReferencePath)
	assert.Equal(t, "./data", cfg.OutputDir)
	assert.False(t, cfg.Cluster)
	assert.False(t, cfg.DensityMetrics)
	assert.False(t, cfg.RollingMean)
	assert.True(t, cfg.Smoothing)
	assert.False(t, cfg.OptimizeOutput)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsFile)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "covid-county-metrics", cfg.KafkaSinkTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, filepath.Join("data", "nyt_df.csv"), cfg.OutputPath())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("FEED_URL", "file:///tmp/us-counties.csv")
	t.Setenv("FEED_TIMEOUT", "30s")
	t.Setenv("REFERENCE_PATH", "/srv/ref.csv")
	t.Setenv("OUTPUT_DIR", "/srv/out")
	t.Setenv("CLUSTER", "true")
	t.Setenv("DENSITY_METRICS", "1")
	t.Setenv("ROLLING_MEAN", "true")
	t.Setenv("SMOOTHING", "false")
	t.Setenv("OPTIMIZE_OUTPUT", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_FILE", "/var/lib/node_exporter/covid_etl.prom")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("BATCH_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file:///tmp/us-counties.csv", cfg.FeedURL)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "/srv/ref.csv", cfg.ReferencePath)
	assert.True(t, cfg.Cluster)
	assert.True(t, cfg.DensityMetrics)
	assert.True(t, cfg.RollingMean)
	assert.False(t, cfg.Smoothing)
	assert.True(t, cfg.OptimizeOutput)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/node_exporter/covid_etl.prom", cfg.MetricsFile)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, filepath.Join("/srv/out", "nyt_df_cluster.csv"), cfg.OutputPath())
}

func TestLoad_InvalidFeedTimeout(t *testing.T) {
	for _, v := range []string{"not-a-duration", "-1s", "0s"} {
		t.Setenv("FEED_TIMEOUT", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "FEED_TIMEOUT")
	}
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFlag(t *testing.T) {
	t.Setenv("CLUSTER", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLUSTER")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OUTPUT_DIR=/from/dotenv\nCLUSTER=true\n"), 0o600))

	t.Setenv("CLUSTER", "false")
	t.Setenv("OUTPUT_DIR", "")
	require.NoError(t, os.Unsetenv("OUTPUT_DIR"))

	require.NoError(t, LoadEnvFile(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.OutputDir)
	assert.False(t, cfg.Cluster, "shell value wins over the file")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}
