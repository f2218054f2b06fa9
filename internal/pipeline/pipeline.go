package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// FeedExtractor loads the county observation feed.
type FeedExtractor interface {
	ExtractFeed(ctx context.Context) (*frame.Frame, error)
}

// ReferenceExtractor loads the static per-region reference table.
type ReferenceExtractor interface {
	ExtractReference(ctx context.Context) (*frame.Frame, error)
}

// Transformer turns the feed and reference tables into the output table.
type Transformer interface {
	Transform(ctx context.Context, feed, reference *frame.Frame) (*frame.Frame, error)
}

// Loader writes the output table to one destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, f *frame.Frame) error
}

// Failure stages, used as the run_failures_total label.
const (
	stageExtract   = "extract"
	stageTransform = "transform"
	stageLoad      = "load"
)

// Pipeline runs one extract-transform-load pass.
type Pipeline struct {
	feed        FeedExtractor
	reference   ReferenceExtractor
	transformer Transformer
	loaders     []Loader
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Loaders
// run in order; the first failure stops the run.
func New(feed FeedExtractor, reference ReferenceExtractor, t Transformer, loaders []Loader, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		feed:        feed,
		reference:   reference,
		transformer: t,
		loaders:     loaders,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once both inputs have been extracted, or an
// error describing why the run is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not extracted its inputs yet")
	}
	return nil
}

// Run executes the pass once. Nothing is retried: any stage error aborts
// the run and is returned wrapped with the stage that failed.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	p.logger.Info("pipeline started", "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	feed, err := p.feed.ExtractFeed(ctx)
	if err != nil {
		return p.fail(stageExtract, fmt.Errorf("extract feed: %w", err))
	}
	reference, err := p.reference.ExtractReference(ctx)
	if err != nil {
		return p.fail(stageExtract, fmt.Errorf("extract reference: %w", err))
	}
	p.ready.Store(true)

	out, err := p.transformer.Transform(ctx, feed, reference)
	if err != nil {
		return p.fail(stageTransform, fmt.Errorf("transform: %w", err))
	}

	for _, l := range p.loaders {
		if err := ctx.Err(); err != nil {
			return p.fail(stageLoad, err)
		}
		if err := l.Load(ctx, out); err != nil {
			return p.fail(stageLoad, fmt.Errorf("load %s: %w", l.Name(), err))
		}
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.logger.Info("pipeline finished", "rows", out.Len(), "columns", len(out.Names()), "duration", elapsed)
	return nil
}

func (p *Pipeline) fail(stage string, err error) error {
	p.metrics.RunFailures.WithLabelValues(stage).Inc()
	p.logger.Error("pipeline failed", "stage", stage, "error", err)
	return err
}
