package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ReadOptions controls CSV type inference.
type ReadOptions struct {
	// StringColumns are kept as text regardless of content, e.g. "fips"
	// whose leading zeros are significant.
	StringColumns []string
}

// ReadCSV parses a headed CSV. A column becomes Int64 when every cell is an
// integer, Float64 when every non-blank cell is numeric (blanks become NaN),
// and String otherwise.
func ReadCSV(r io.Reader, opts ReadOptions) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	reader.FieldsPerRecord = len(header)

	raw := make([][]string, len(header))
	rowNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: read csv record: %w", rowNum+1, err)
		}
		rowNum++
		for i, v := range record {
			raw[i] = append(raw[i], strings.TrimSpace(v))
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		if slices.Contains(opts.StringColumns, name) {
			cols[i] = NewStringColumn(name, nonNil(raw[i]))
			continue
		}
		cols[i] = inferColumn(name, nonNil(raw[i]))
	}
	return New(cols...)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// inferColumn picks the narrowest of int64, float64 and text that parses
// every cell. A column with no rows stays text.
func inferColumn(name string, cells []string) *Column {
	if len(cells) == 0 {
		return NewStringColumn(name, cells)
	}
	if ints, ok := parseInts(cells); ok {
		return NewIntColumn(name, ints)
	}
	if floats, ok := parseFloats(cells); ok {
		return NewFloatColumn(name, floats)
	}
	return NewStringColumn(name, cells)
}

func parseInts(cells []string) ([]int64, bool) {
	if len(cells) == 0 {
		return nil, false
	}
	out := make([]int64, len(cells))
	for i, s := range cells {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, s := range cells {
		if s == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// WriteCSV writes a header line and one line per row, without an index
// column.
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(f.cols))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.cols {
			record[j] = c.Format(i)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("row %d: write csv record: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
