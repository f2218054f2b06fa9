package domain

import (
	"fmt"
	"strconv"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
)

// AddRateCols adds cases_per_100k and deaths_per_100k from the population
// column. When area is non-empty it also adds case_density and
// death_density, the per-100k rates divided by area. Undefined results
// (zero population or area) are stored as missing. Returns the working
// column set: the raw counts followed by every rate added.
func AddRateCols(f *frame.Frame, pop, area string) (*frame.Frame, []string, error) {
	popCol, err := numericColumn(f, pop)
	if err != nil {
		return nil, nil, fmt.Errorf("add rate cols: %w", err)
	}
	var areaCol *frame.Column
	if area != "" {
		if areaCol, err = numericColumn(f, area); err != nil {
			return nil, nil, fmt.Errorf("add rate cols: %w", err)
		}
	}

	out := f.Take(allRows(f.Len()))
	cols := []string{ColCases, ColDeaths}
	rates := []struct{ src, per100k, density string }{
		{ColCases, ColCasesPer100k, ColCaseDensity},
		{ColDeaths, ColDeathsPer100k, ColDeathDensity},
	}

	var densities []string
	for _, r := range rates {
		src, err := numericColumn(f, r.src)
		if err != nil {
			return nil, nil, fmt.Errorf("add rate cols: %w", err)
		}
		rate := make([]float64, f.Len())
		for i := range rate {
			rate[i] = defined(src.Float(i) / popCol.Float(i) * per100k)
		}
		if err := out.Set(frame.NewFloatColumn(r.per100k, rate)); err != nil {
			return nil, nil, err
		}
		cols = append(cols, r.per100k)

		if areaCol == nil {
			continue
		}
		density := make([]float64, f.Len())
		for i := range density {
			density[i] = defined(rate[i] / areaCol.Float(i))
		}
		if err := out.Set(frame.NewFloatColumn(r.density, density)); err != nil {
			return nil, nil, err
		}
		densities = append(densities, r.density)
	}
	return out, append(cols, densities...), nil
}

// AddChangeCols adds prefix+col holding the difference from the previous
// observation of the same region. A region's first observation has no
// predecessor and gets 0, as does any other undefined difference. With clip,
// negative differences are floored to 0.
func AddChangeCols(f *frame.Frame, keys, cols []string, prefix string, clip bool) (*frame.Frame, []string, error) {
	return addGroupedCols(f, keys, cols, func(c string) string { return prefix + c }, func(x []float64) []float64 {
		out := make([]float64, len(x))
		for i := 1; i < len(x); i++ {
			out[i] = x[i] - x[i-1]
		}
		for i, v := range out {
			if isMissing(v) {
				out[i] = 0
			}
			if clip && out[i] < 0 {
				out[i] = 0
			}
		}
		return out
	})
}

// AddSavgolCols adds col+"_<window>sg" holding each region's series smoothed
// by Savgol. With clip, negative smoothed values are floored to 0.
func AddSavgolCols(f *frame.Frame, keys, cols []string, window int, clip bool) (*frame.Frame, []string, error) {
	if window < 3 || window%2 == 0 {
		return nil, nil, fmt.Errorf("add savgol cols: window must be odd and at least 3, got %d", window)
	}
	suffix := "_" + strconv.Itoa(window) + "sg"
	return addGroupedCols(f, keys, cols, func(c string) string { return c + suffix }, func(x []float64) []float64 {
		out := Savgol(x, window)
		if clip {
			clipNegative(out)
		}
		return out
	})
}

// AddRollingMeanCols adds col+"_<window>d" holding each region's trailing
// mean over up to window observations.
func AddRollingMeanCols(f *frame.Frame, keys, cols []string, window int) (*frame.Frame, []string, error) {
	if window < 1 {
		return nil, nil, fmt.Errorf("add rolling mean cols: window must be positive, got %d", window)
	}
	suffix := "_" + strconv.Itoa(window) + "d"
	return addGroupedCols(f, keys, cols, func(c string) string { return c + suffix }, func(x []float64) []float64 {
		return RollingMean(x, window)
	})
}

// AddDays adds the integer number of days between each row's date and the
// earliest date in the whole table.
func AddDays(f *frame.Frame) (*frame.Frame, error) {
	date, err := f.Column(ColDate)
	if err != nil {
		return nil, fmt.Errorf("add days: %w", err)
	}
	if date.Type() != frame.Date {
		return nil, fmt.Errorf("add days: column %q is %s, want date", ColDate, date.Type())
	}

	first := -1
	for i := 0; i < f.Len(); i++ {
		if date.IsMissing(i) {
			return nil, fmt.Errorf("add days: row %d: missing date", i+1)
		}
		if first < 0 || date.Time(i).Before(date.Time(first)) {
			first = i
		}
	}

	days := make([]int64, f.Len())
	for i := range days {
		days[i] = int64(date.Time(i).Sub(date.Time(first)).Hours() / 24)
	}
	out := f.Take(allRows(f.Len()))
	if err := out.Set(frame.NewIntColumn(ColDays, days)); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMortalityRate adds deaths / cases. Rows with zero cases are left
// missing rather than filled.
func AddMortalityRate(f *frame.Frame) (*frame.Frame, error) {
	cases, err := numericColumn(f, ColCases)
	if err != nil {
		return nil, fmt.Errorf("add mortality rate: %w", err)
	}
	deaths, err := numericColumn(f, ColDeaths)
	if err != nil {
		return nil, fmt.Errorf("add mortality rate: %w", err)
	}

	rate := make([]float64, f.Len())
	for i := range rate {
		c := cases.Float(i)
		if c == 0 || isMissing(c) {
			rate[i] = nan()
			continue
		}
		rate[i] = defined(deaths.Float(i) / c)
	}
	out := f.Take(allRows(f.Len()))
	if err := out.Set(frame.NewFloatColumn(ColMortalityRate, rate)); err != nil {
		return nil, err
	}
	return out, nil
}

// addGroupedCols sorts f by date then keys, applies fn to each region's
// chronological series of every column in cols, and stores the result under
// name(col).
func addGroupedCols(f *frame.Frame, keys, cols []string, name func(string) string, fn func([]float64) []float64) (*frame.Frame, []string, error) {
	sorted, err := f.SortBy(append([]string{ColDate}, keys...)...)
	if err != nil {
		return nil, nil, err
	}
	groups, err := sorted.Groups(keys...)
	if err != nil {
		return nil, nil, err
	}

	added := make([]string, 0, len(cols))
	for _, col := range cols {
		src, err := numericColumn(sorted, col)
		if err != nil {
			return nil, nil, err
		}
		out := make([]float64, sorted.Len())
		series := make([]float64, 0, sorted.Len())
		for _, g := range groups {
			series = series[:0]
			for _, r := range g.Rows {
				series = append(series, src.Float(r))
			}
			for j, v := range fn(series) {
				out[g.Rows[j]] = v
			}
		}
		if err := sorted.Set(frame.NewFloatColumn(name(col), out)); err != nil {
			return nil, nil, err
		}
		added = append(added, name(col))
	}
	return sorted, added, nil
}

func numericColumn(f *frame.Frame, name string) (*frame.Column, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, fmt.Errorf("column %q is %s, want numeric", name, c.Type())
	}
	return c, nil
}

func clipNegative(v []float64) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0
		}
	}
}
