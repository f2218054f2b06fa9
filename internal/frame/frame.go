package frame

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// keySep joins multi-column group keys. It cannot appear in CSV text cells
// produced by the feed.
const keySep = "\x1f"

// Frame is an ordered set of equal-length columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a Frame, rejecting duplicate names and ragged columns.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name())
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), f.rows)
		}
		f.index[c.Name()] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Len returns the row count.
func (f *Frame) Len() int { return f.rows }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name()
	}
	return out
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column { return slices.Clone(f.cols) }

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return f.cols[i], nil
}

// Require returns an error naming every column that is absent.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Set appends c, or replaces the column of the same name in place.
func (f *Frame) Set(c *Column) error {
	if len(f.cols) > 0 && c.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), f.rows)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	}
	if i, ok := f.index[c.Name()]; ok {
		f.cols[i] = c
		return nil
	}
	f.index[c.Name()] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	out := &Frame{index: make(map[string]int), rows: f.rows}
	for _, c := range f.cols {
		if slices.Contains(names, c.Name()) {
			continue
		}
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Select returns a frame holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = f.rows
	return out, nil
}

// Rename renames a column in place.
func (f *Frame) Rename(from, to string) error {
	i, ok := f.index[from]
	if !ok {
		return fmt.Errorf("column %q not found", from)
	}
	if from == to {
		return nil
	}
	if f.Has(to) {
		return fmt.Errorf("duplicate column %q", to)
	}
	f.cols[i] = f.cols[i].Rename(to)
	delete(f.index, from)
	f.index[to] = i
	return nil
}

// Take returns a frame holding the given rows, in that order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.cols)), rows: len(rows)}
	for i, c := range f.cols {
		out.index[c.Name()] = i
		out.cols = append(out.cols, c.Take(rows))
	}
	return out
}

// SortBy returns a frame stably sorted ascending by the given keys.
func (f *Frame) SortBy(keys ...string) (*Frame, error) {
	if len(keys) == 0 {
		return nil, errors.New("sort: no keys")
	}
	kc, err := f.columnsFor(keys)
	if err != nil {
		return nil, fmt.Errorf("sort: %w", err)
	}
	order := make([]int, f.rows)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		for _, c := range kc {
			if r := c.compare(a, b); r != 0 {
				return r
			}
		}
		return 0
	})
	return f.Take(order), nil
}

// Group is the set of rows sharing one key tuple.
type Group struct {
	Key  string
	Rows []int
}

// Groups partitions row indices by the given key columns. Rows keep their
// frame order inside a group; groups are ordered by first appearance.
func (f *Frame) Groups(keys ...string) ([]Group, error) {
	kc, err := f.columnsFor(keys)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	var groups []Group
	pos := make(map[string]int)
	for i := 0; i < f.rows; i++ {
		k := rowKey(kc, i)
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: k})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}

// RowKey returns the joined key text of row i over the named columns.
func (f *Frame) RowKey(i int, keys ...string) (string, error) {
	kc, err := f.columnsFor(keys)
	if err != nil {
		return "", err
	}
	return rowKey(kc, i), nil
}

func (f *Frame) columnsFor(names []string) ([]*Column, error) {
	out := make([]*Column, len(names))
	for i, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func rowKey(cols []*Column, i int) string {
	if len(cols) == 1 {
		return cols[0].Key(i)
	}
	parts := make([]string, len(cols))
	for j, c := range cols {
		parts[j] = c.Key(i)
	}
	return strings.Join(parts, keySep)
}
