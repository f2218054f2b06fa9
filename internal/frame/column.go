package frame

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the canonical serialization of Date cells.
const DateLayout = "2006-01-02"

// DataType is the storage representation of a column.
type DataType uint8

const (
	Unknown DataType = iota
	String
	Category
	Date
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
)

func (t DataType) String() string {
	switch t {
	case String:
		return "string"
	case Category:
		return "category"
	case Date:
		return "date"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// IsInt reports whether t is one of the integer widths.
func (t DataType) IsInt() bool { return t >= Int8 && t <= Int64 }

// IsFloat reports whether t is one of the float widths.
func (t DataType) IsFloat() bool { return t == Float32 || t == Float64 }

// Column is a named, typed vector. Integer and float widths are a
// representation tag; values are held as int64 and float64.
type Column struct {
	name  string
	dtype DataType

	strs   []string // String
	codes  []int32  // Category, index into levels (-1 missing)
	levels []string
	ints   []int64
	floats []float64
	dates  []time.Time
}

// NewStringColumn creates a String column. Empty strings are missing.
func NewStringColumn(name string, v []string) *Column {
	return &Column{name: name, dtype: String, strs: v}
}

// NewCategoryColumn dictionary-encodes v. Levels keep first-seen order.
func NewCategoryColumn(name string, v []string) *Column {
	c := &Column{name: name, dtype: Category, codes: make([]int32, len(v))}
	idx := make(map[string]int32)
	for i, s := range v {
		if s == "" {
			c.codes[i] = -1
			continue
		}
		code, ok := idx[s]
		if !ok {
			code = int32(len(c.levels))
			idx[s] = code
			c.levels = append(c.levels, s)
		}
		c.codes[i] = code
	}
	return c
}

// NewIntColumn creates an Int64 column.
func NewIntColumn(name string, v []int64) *Column {
	return &Column{name: name, dtype: Int64, ints: v}
}

// NewFloatColumn creates a Float64 column. NaN is missing.
func NewFloatColumn(name string, v []float64) *Column {
	return &Column{name: name, dtype: Float64, floats: v}
}

// NewDateColumn creates a Date column. The zero time is missing.
func NewDateColumn(name string, v []time.Time) *Column {
	return &Column{name: name, dtype: Date, dates: v}
}

func (c *Column) Name() string   { return c.name }
func (c *Column) Type() DataType { return c.dtype }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch {
	case c.dtype == String:
		return len(c.strs)
	case c.dtype == Category:
		return len(c.codes)
	case c.dtype == Date:
		return len(c.dates)
	case c.dtype.IsInt():
		return len(c.ints)
	case c.dtype.IsFloat():
		return len(c.floats)
	}
	return 0
}

// IsNumeric reports whether the column holds integers or floats.
func (c *Column) IsNumeric() bool { return c.dtype.IsInt() || c.dtype.IsFloat() }

// Float returns cell i as a float64. Non-numeric columns yield NaN.
func (c *Column) Float(i int) float64 {
	switch {
	case c.dtype.IsFloat():
		return c.floats[i]
	case c.dtype.IsInt():
		return float64(c.ints[i])
	}
	return math.NaN()
}

// Int returns cell i as an int64, truncating floats. Missing floats yield 0.
func (c *Column) Int(i int) int64 {
	switch {
	case c.dtype.IsInt():
		return c.ints[i]
	case c.dtype.IsFloat():
		if math.IsNaN(c.floats[i]) {
			return 0
		}
		return int64(c.floats[i])
	}
	return 0
}

// Str returns cell i as text. Missing cells yield "".
func (c *Column) Str(i int) string {
	switch c.dtype {
	case String:
		return c.strs[i]
	case Category:
		if c.codes[i] < 0 {
			return ""
		}
		return c.levels[c.codes[i]]
	}
	return c.Format(i)
}

// Time returns cell i of a Date column, the zero time otherwise.
func (c *Column) Time(i int) time.Time {
	if c.dtype == Date {
		return c.dates[i]
	}
	return time.Time{}
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	switch {
	case c.dtype == String:
		return c.strs[i] == ""
	case c.dtype == Category:
		return c.codes[i] < 0
	case c.dtype == Date:
		return c.dates[i].IsZero()
	case c.dtype.IsFloat():
		return math.IsNaN(c.floats[i])
	}
	return false
}

// Key returns the canonical text of cell i used for grouping and joining.
func (c *Column) Key(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch {
	case c.dtype == Date:
		return c.dates[i].Format(DateLayout)
	case c.dtype.IsInt():
		return strconv.FormatInt(c.ints[i], 10)
	case c.dtype.IsFloat():
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	}
	return c.Str(i)
}

// Floats returns a float64 copy of a numeric column.
func (c *Column) Floats() []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}

// Strings returns the text of every cell.
func (c *Column) Strings() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Str(i)
	}
	return out
}

// Format renders cell i the way the CSV writer emits it.
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch {
	case c.dtype == String, c.dtype == Category:
		return c.Str(i)
	case c.dtype == Date:
		return c.dates[i].Format(DateLayout)
	case c.dtype.IsInt():
		return strconv.FormatInt(c.ints[i], 10)
	case c.dtype == Float32:
		return formatFloat(c.floats[i], 32)
	case c.dtype == Float64:
		return formatFloat(c.floats[i], 64)
	}
	return ""
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, bits)
	}
	s := strconv.FormatFloat(v, 'f', -1, bits)
	if v == math.Trunc(v) {
		s += ".0"
	}
	return s
}

// Rename returns a shallow copy of c under a new name.
func (c *Column) Rename(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Take returns a new column holding the cells at rows, in that order.
func (c *Column) Take(rows []int) *Column {
	out := &Column{name: c.name, dtype: c.dtype, levels: c.levels}
	switch {
	case c.dtype == String:
		out.strs = make([]string, len(rows))
		for j, i := range rows {
			out.strs[j] = c.strs[i]
		}
	case c.dtype == Category:
		out.codes = make([]int32, len(rows))
		for j, i := range rows {
			out.codes[j] = c.codes[i]
		}
	case c.dtype == Date:
		out.dates = make([]time.Time, len(rows))
		for j, i := range rows {
			out.dates[j] = c.dates[i]
		}
	case c.dtype.IsInt():
		out.ints = make([]int64, len(rows))
		for j, i := range rows {
			out.ints[j] = c.ints[i]
		}
	case c.dtype.IsFloat():
		out.floats = make([]float64, len(rows))
		for j, i := range rows {
			out.floats[j] = c.floats[i]
		}
	}
	return out
}

// compare orders cell i of c against cell j. Missing sorts last.
func (c *Column) compare(i, j int) int {
	mi, mj := c.IsMissing(i), c.IsMissing(j)
	switch {
	case mi && mj:
		return 0
	case mi:
		return 1
	case mj:
		return -1
	}
	switch {
	case c.dtype == Date:
		return c.dates[i].Compare(c.dates[j])
	case c.dtype.IsInt():
		return cmpOrdered(c.ints[i], c.ints[j])
	case c.dtype.IsFloat():
		return cmpOrdered(c.floats[i], c.floats[j])
	}
	return cmpOrdered(c.Str(i), c.Str(j))
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (c *Column) String() string {
	return fmt.Sprintf("%s(%s, %d)", c.name, c.dtype, c.Len())
}
