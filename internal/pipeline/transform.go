package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
)

// TransformOptions selects the run mode and the derived column families.
type TransformOptions struct {
	Cluster        bool
	DensityMetrics bool
	RollingMean    bool
	Smoothing      bool
	OptimizeOutput bool
}

// CovidTransformer implements Transformer: it joins the feed with the
// reference table, optionally aggregates into clusters, and derives the
// metric columns.
type CovidTransformer struct {
	opts    TransformOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a CovidTransformer.
func NewTransformer(opts TransformOptions, logger *slog.Logger, metrics *observability.Metrics) *CovidTransformer {
	return &CovidTransformer{opts: opts, logger: logger, metrics: metrics}
}

func (t *CovidTransformer) Transform(ctx context.Context, feed, reference *frame.Frame) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	joined, err := t.join(feed, reference)
	if err != nil {
		return nil, err
	}

	if t.opts.Cluster {
		if joined, err = aggregateClusters(joined); err != nil {
			return nil, err
		}
		t.logger.Info("aggregated clusters", "rows", joined.Len())
	}

	derive := domain.DefaultOptions(t.opts.Cluster)
	derive.Density = t.opts.DensityMetrics
	derive.RollingMean = t.opts.RollingMean
	derive.Smoothing = t.opts.Smoothing

	out, err := domain.Derive(joined, derive)
	if err != nil {
		return nil, err
	}
	if t.opts.OptimizeOutput {
		out = frame.Optimize(out)
	}
	return out, nil
}

// referenceColumns are the reference columns merged into the feed: the key,
// population and county name, plus cluster and area when the run needs them.
func (t *CovidTransformer) referenceColumns() []string {
	cols := []string{domain.ColFIPS, domain.ColTotalPop, domain.ColCounty}
	if t.opts.Cluster {
		cols = append(cols, domain.ColCluster)
	}
	if t.opts.DensityMetrics {
		cols = append(cols, domain.ColArea)
	}
	return cols
}

// join remaps the special regions and inner-joins on fips against the
// selected reference columns. Unmatched rows on either side are dropped;
// the counts are logged and exported.
func (t *CovidTransformer) join(feed, reference *frame.Frame) (*frame.Frame, error) {
	feed, err := domain.RemapSpecialRegions(feed)
	if err != nil {
		return nil, err
	}

	cols := t.referenceColumns()
	if err := reference.Require(cols...); err != nil {
		return nil, fmt.Errorf("reference schema: %w", err)
	}
	if reference, err = reference.Select(cols...); err != nil {
		return nil, fmt.Errorf("reference schema: %w", err)
	}

	joined, stats, err := frame.InnerJoin(feed, reference, domain.ColFIPS)
	if err != nil {
		return nil, fmt.Errorf("join reference: %w", err)
	}

	t.metrics.JoinDropped.WithLabelValues("feed").Set(float64(stats.LeftDropped))
	t.metrics.JoinDropped.WithLabelValues("reference").Set(float64(stats.RightUnmatched))
	if stats.LeftDropped > 0 || stats.RightUnmatched > 0 {
		t.logger.Warn("reference join dropped rows",
			"feed_rows", stats.LeftRows,
			"feed_dropped", stats.LeftDropped,
			"reference_rows", stats.RightRows,
			"reference_unmatched", stats.RightUnmatched,
			"rows_out", stats.RowsOut,
		)
	} else {
		t.logger.Info("reference joined", "rows_out", stats.RowsOut)
	}
	return joined, nil
}

// aggregateClusters sums cases, deaths and total_pop per (state, cluster,
// date) and casts the sums back to integers.
func aggregateClusters(f *frame.Frame) (*frame.Frame, error) {
	keys := append(append([]string(nil), domain.ClusterKeys...), domain.ColDate)
	sums := []string{domain.ColCases, domain.ColDeaths, domain.ColTotalPop}
	if err := f.Require(append(keys, sums...)...); err != nil {
		return nil, fmt.Errorf("aggregate clusters: %w", err)
	}

	out, err := frame.SumBy(f, keys, sums)
	if err != nil {
		return nil, fmt.Errorf("aggregate clusters: %w", err)
	}
	for _, name := range sums {
		c, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		if err := out.Set(frame.ToInt(c)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
