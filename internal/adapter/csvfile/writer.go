package csvfile

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/couchcryptid/county-covid-etl/internal/observability"
)

// Writer writes the output table, replacing any previous file.
// It implements pipeline.Loader.
type Writer struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a writer for path. Parent directories are created on
// first write.
func NewWriter(path string, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{path: path, logger: logger, metrics: metrics}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "csv" }

// Load writes f with a header row and no index column.
func (w *Writer) Load(ctx context.Context, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	buf := bufio.NewWriter(file)
	if err := frame.WriteCSV(buf, f); err != nil {
		file.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := buf.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	w.metrics.OutputRows.Set(float64(f.Len()))
	w.logger.Info("output written", "path", w.path, "rows", f.Len(), "columns", len(f.Names()))
	return nil
}
