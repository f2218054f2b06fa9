package frame

import (
	"math"
	"time"
)

// categoryRatio is the distinct/rows threshold below which a text column is
// dictionary-encoded.
const categoryRatio = 0.5

// dateLayouts are tried in order when promoting a text column to Date.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Optimize returns a frame with the same values held in narrower
// representations: text to dates, low-cardinality text to categories,
// integers to the narrowest width covering their range, and floats to
// float32 when every value round-trips exactly. A column that cannot be
// converted is left as is.
func Optimize(f *Frame) *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols)), rows: f.rows}
	for i, c := range f.cols {
		out.index[c.Name()] = i
		out.cols = append(out.cols, optimizeColumn(c, f.rows))
	}
	return out
}

func optimizeColumn(c *Column, rows int) *Column {
	switch {
	case c.dtype == String:
		if d, ok := parseDates(c); ok {
			return d
		}
		if rows > 0 && float64(distinct(c.strs))/float64(rows) < categoryRatio {
			return NewCategoryColumn(c.name, c.strs)
		}
		return c
	case c.dtype.IsInt():
		out := *c
		out.dtype = narrowInt(c.ints)
		return &out
	case c.dtype == Float64:
		if fitsFloat32(c.floats) {
			out := *c
			out.dtype = Float32
			return &out
		}
	}
	return c
}

func parseDates(c *Column) (*Column, bool) {
	layout := ""
	for _, s := range c.strs {
		if s == "" {
			continue
		}
		for _, l := range dateLayouts {
			if _, err := time.Parse(l, s); err == nil {
				layout = l
				break
			}
		}
		break
	}
	if layout == "" {
		return nil, false
	}
	dates := make([]time.Time, len(c.strs))
	for i, s := range c.strs {
		if s == "" {
			continue
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, false
		}
		dates[i] = t
	}
	return NewDateColumn(c.name, dates), true
}

// distinct counts unique values, counting missing as one value.
func distinct(v []string) int {
	seen := make(map[string]struct{}, len(v))
	for _, s := range v {
		seen[s] = struct{}{}
	}
	return len(seen)
}

func narrowInt(v []int64) DataType {
	lo, hi := int64(0), int64(0)
	for i, x := range v {
		if i == 0 || x < lo {
			lo = x
		}
		if i == 0 || x > hi {
			hi = x
		}
	}
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return Int8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return Int16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return Int32
	}
	return Int64
}

func fitsFloat32(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if float64(float32(x)) != x {
			return false
		}
	}
	return true
}
