// Package kafka publishes output rows to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/couchcryptid/county-covid-etl/internal/config"
	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per output row.
// It implements pipeline.Loader.
type Writer struct {
	writer    messageWriter
	keys      []string
	dataset   string
	batchSize int
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic. Rows
// are keyed by the region columns of the configured mode.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	keys := domain.CountyKeys
	dataset := "county"
	if cfg.Cluster {
		keys = domain.ClusterKeys
		dataset = "cluster"
	}
	return &Writer{
		writer:    w,
		keys:      keys,
		dataset:   dataset,
		batchSize: cfg.BatchSize,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "kafka" }

// Load serializes every row of f and publishes them in batches of
// batchSize, one WriteMessages call per batch.
func (w *Writer) Load(ctx context.Context, f *frame.Frame) error {
	if f.Len() == 0 {
		return nil
	}
	keyCols, err := columns(f, w.keys)
	if err != nil {
		return fmt.Errorf("publish rows: %w", err)
	}
	date, err := f.Column(domain.ColDate)
	if err != nil {
		return fmt.Errorf("publish rows: %w", err)
	}

	processedAt := w.clock.Now().UTC()
	cols := f.Columns()
	batch := make([]kafkago.Message, 0, w.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.writer.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("publish rows: %w", err)
		}
		w.metrics.RowsPublished.Add(float64(len(batch)))
		batch = batch[:0]
		return nil
	}

	for i := 0; i < f.Len(); i++ {
		msg, err := serializeRow(cols, i, rowKey(keyCols, date, i), w.dataset, processedAt)
		if err != nil {
			return err
		}
		batch = append(batch, msg)
		if len(batch) >= w.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	w.logger.Info("rows published", "rows", f.Len(), "dataset", w.dataset)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func columns(f *frame.Frame, names []string) ([]*frame.Column, error) {
	out := make([]*frame.Column, len(names))
	for i, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// rowKey joins the region key values and the date with "|", so every
// message for one region lands on the same partition.
func rowKey(keys []*frame.Column, date *frame.Column, i int) string {
	parts := make([]string, 0, len(keys)+1)
	for _, c := range keys {
		parts = append(parts, c.Format(i))
	}
	parts = append(parts, date.Format(i))
	return strings.Join(parts, "|")
}

// serializeRow marshals row i into a Kafka message. Numeric cells become
// JSON numbers, missing and infinite cells null, everything else the CSV text.
func serializeRow(cols []*frame.Column, i int, key, dataset string, processedAt time.Time) (kafkago.Message, error) {
	row := make(map[string]any, len(cols))
	for _, c := range cols {
		switch {
		case c.IsMissing(i), math.IsInf(c.Float(i), 0):
			row[c.Name()] = nil
		case c.Type().IsInt():
			row[c.Name()] = c.Int(i)
		case c.Type().IsFloat():
			row[c.Name()] = c.Float(i)
		default:
			row[c.Name()] = c.Format(i)
		}
	}
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %d: %w", i+1, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "dataset", Value: []byte(dataset)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
