package frame

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// JoinStats describes what an inner join kept and discarded.
type JoinStats struct {
	LeftRows       int
	RightRows      int
	LeftDropped    int
	RightUnmatched int
	RowsOut        int
}

// InnerJoin matches left and right on the key column. Rows without a match
// on either side are discarded; blank keys never match. When both sides
// carry a column of the same name the right side's copy is kept. Output
// columns are the surviving left columns followed by the right non-key
// columns, in left-row order.
func InnerJoin(left, right *Frame, on string) (*Frame, JoinStats, error) {
	stats := JoinStats{LeftRows: left.Len(), RightRows: right.Len()}

	lk, err := left.Column(on)
	if err != nil {
		return nil, stats, fmt.Errorf("join left: %w", err)
	}
	rk, err := right.Column(on)
	if err != nil {
		return nil, stats, fmt.Errorf("join right: %w", err)
	}

	rightRows := make(map[string][]int, right.Len())
	for i := 0; i < right.Len(); i++ {
		k := rk.Key(i)
		if k == "" {
			continue
		}
		rightRows[k] = append(rightRows[k], i)
	}

	var lIdx, rIdx []int
	matched := make(map[string]bool, len(rightRows))
	for i := 0; i < left.Len(); i++ {
		k := lk.Key(i)
		rs, ok := rightRows[k]
		if k == "" || !ok {
			stats.LeftDropped++
			continue
		}
		matched[k] = true
		for _, r := range rs {
			lIdx = append(lIdx, i)
			rIdx = append(rIdx, r)
		}
	}
	for k, rs := range rightRows {
		if !matched[k] {
			stats.RightUnmatched += len(rs)
		}
	}
	for i := 0; i < right.Len(); i++ {
		if rk.Key(i) == "" {
			stats.RightUnmatched++
		}
	}

	var cols []*Column
	rightNames := right.Names()
	for _, c := range left.cols {
		if c.Name() != on && slices.Contains(rightNames, c.Name()) {
			continue
		}
		cols = append(cols, c.Take(lIdx))
	}
	for _, c := range right.cols {
		if c.Name() == on {
			continue
		}
		cols = append(cols, c.Take(rIdx))
	}

	out, err := New(cols...)
	if err != nil {
		return nil, stats, fmt.Errorf("join: %w", err)
	}
	stats.RowsOut = out.Len()
	return out, stats, nil
}

// SumBy groups rows by keys and sums each column in sums, skipping NaN.
// Groups with a missing key value or an undefined sum are dropped. Output is
// sorted ascending by keys; key columns keep their type, sums are Float64.
func SumBy(f *Frame, keys, sums []string) (*Frame, error) {
	kc, err := f.columnsFor(keys)
	if err != nil {
		return nil, fmt.Errorf("sum by: %w", err)
	}
	sc, err := f.columnsFor(sums)
	if err != nil {
		return nil, fmt.Errorf("sum by: %w", err)
	}
	for _, c := range sc {
		if !c.IsNumeric() {
			return nil, fmt.Errorf("sum by: column %q is not numeric", c.Name())
		}
	}

	groups, err := f.Groups(keys...)
	if err != nil {
		return nil, err
	}

	first := make([]int, 0, len(groups))
	totals := make([][]float64, len(sums))
	for _, g := range groups {
		if hasMissingKey(kc, g.Rows[0]) {
			continue
		}
		row := make([]float64, len(sc))
		defined := true
		for j, c := range sc {
			for _, r := range g.Rows {
				if v := c.Float(r); !math.IsNaN(v) {
					row[j] += v
				}
			}
			if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				defined = false
			}
		}
		if !defined {
			continue
		}
		first = append(first, g.Rows[0])
		for j := range sc {
			totals[j] = append(totals[j], row[j])
		}
	}

	order := make([]int, len(first))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		for _, c := range kc {
			if r := c.compare(first[order[a]], first[order[b]]); r != 0 {
				return r < 0
			}
		}
		return false
	})

	rows := make([]int, len(order))
	for i, o := range order {
		rows[i] = first[o]
	}
	cols := make([]*Column, 0, len(keys)+len(sums))
	for _, c := range kc {
		cols = append(cols, c.Take(rows))
	}
	for j, name := range sums {
		v := make([]float64, len(order))
		for i, o := range order {
			v[i] = totals[j][o]
		}
		cols = append(cols, NewFloatColumn(name, v))
	}
	return New(cols...)
}

// ToInt converts a numeric column to Int64, truncating toward zero.
func ToInt(c *Column) *Column {
	v := make([]int64, c.Len())
	for i := range v {
		v[i] = c.Int(i)
	}
	return NewIntColumn(c.Name(), v)
}

func hasMissingKey(cols []*Column, row int) bool {
	for _, c := range cols {
		if c.IsMissing(row) || strings.TrimSpace(c.Key(row)) == "" {
			return true
		}
	}
	return false
}
