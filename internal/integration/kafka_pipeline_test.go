//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/county-covid-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-covid-etl/internal/adapter/kafka"
	"github.com/couchcryptid/county-covid-etl/internal/adapter/nyt"
	"github.com/couchcryptid/county-covid-etl/internal/config"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
	"github.com/couchcryptid/county-covid-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-covid-metrics"

const feedCSV = `date,county,state,fips,cases,deaths
2020-03-01,Snohomish,Washington,53061,1,0
2020-03-01,New York City,New York,,5,0
2020-03-01,Unknown,Guam,66010,2,0
2020-03-02,Snohomish,Washington,53061,3,1
2020-03-02,New York City,New York,,9,0
2020-03-02,Unknown,Guam,66010,2,0
2020-03-03,Snohomish,Washington,53061,2,1
2020-03-03,New York City,New York,,20,1
`

const referenceCSV = `fips,county,population,area,cluster
53061,Snohomish,822083,2087.27,1
36NYC,New York City,8336817,302.64,2
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("covid-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPipelineEndToEnd wires the real feed client, reference reader, CSV
// writer and Kafka publisher and checks both sinks.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, feedCSV)
	}))
	defer srv.Close()

	dir := t.TempDir()
	refPath := filepath.Join(dir, "dem_df_to_merge.csv")
	require.NoError(t, os.WriteFile(refPath, []byte(referenceCSV), 0o600))

	cfg := &config.Config{
		FeedURL:        srv.URL,
		FeedTimeout:    10 * time.Second,
		ReferencePath:  refPath,
		OutputDir:      filepath.Join(dir, "out"),
		Smoothing:      true,
		KafkaEnabled:   true,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
		BatchSize:      4,
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewWriter(cfg, logger, metrics)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		nyt.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics),
		csvfile.NewReferenceReader(cfg.ReferencePath, logger, metrics),
		pipeline.NewTransformer(pipeline.TransformOptions{Smoothing: true}, logger, metrics),
		[]pipeline.Loader{csvfile.NewWriter(cfg.OutputPath(), logger, metrics), writer},
		clockwork.NewRealClock(), logger, metrics,
	)
	require.NoError(t, p.Run(ctx))

	// Guam has no reference row: 6 of 8 feed rows survive the join.
	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "36NYC")
	assert.NotContains(t, string(data), "66010")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	keys := make(map[string]bool)
	for range 6 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		keys[string(msg.Key)] = true
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "county", headers["dataset"])
		_, err = time.Parse(time.RFC3339, headers["processed_at"])
		assert.NoError(t, err, "processed_at should be valid RFC3339")

		var row map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		assert.Contains(t, row, "new_cases_7sg")
		assert.Contains(t, row, "mortality_rate")
	}
	assert.True(t, keys["36NYC|2020-03-03"])
	assert.True(t, keys["53061|2020-03-01"])
}
