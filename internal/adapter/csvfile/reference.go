// Package csvfile reads the reference table and writes the output table as
// local CSV files.
package csvfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
)

// ReferenceReader loads the static per-region reference table.
// It implements pipeline.ReferenceExtractor.
type ReferenceReader struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReferenceReader creates a reader for the CSV at path.
func NewReferenceReader(path string, logger *slog.Logger, metrics *observability.Metrics) *ReferenceReader {
	return &ReferenceReader{path: path, logger: logger, metrics: metrics}
}

// ExtractReference reads the table. A population column is renamed to
// total_pop; fips and total_pop must then be present.
func (r *ReferenceReader) ExtractReference(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer file.Close()

	f, err := frame.ReadCSV(file, frame.ReadOptions{StringColumns: []string{domain.ColFIPS}})
	if err != nil {
		return nil, fmt.Errorf("parse reference %s: %w", r.path, err)
	}
	if f.Has(domain.ColPopulation) && !f.Has(domain.ColTotalPop) {
		if err := f.Rename(domain.ColPopulation, domain.ColTotalPop); err != nil {
			return nil, err
		}
	}
	if err := f.Require(domain.ColFIPS, domain.ColTotalPop); err != nil {
		return nil, fmt.Errorf("reference schema: %w", err)
	}
	f = frame.Optimize(f)

	r.metrics.ReferenceRows.Set(float64(f.Len()))
	r.logger.Info("reference loaded", "path", r.path, "rows", f.Len(), "columns", len(f.Names()))
	return f, nil
}
