package domain

import (
	"fmt"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
)

// SpecialRegions maps the feed's county name for aggregate regions to the
// identifier used in the reference data. The feed reports these without a
// usable FIPS code.
var SpecialRegions = map[string]string{
	"New York City": "36NYC",
	"Kansas City":   "29KCM",
	"Joplin":        "29JOP",
}

// RemapSpecialRegions rewrites the fips of every row whose county is one of
// SpecialRegions. Matching is exact string equality on the county name.
func RemapSpecialRegions(f *frame.Frame) (*frame.Frame, error) {
	county, err := f.Column(ColCounty)
	if err != nil {
		return nil, fmt.Errorf("remap special regions: %w", err)
	}
	fips, err := f.Column(ColFIPS)
	if err != nil {
		return nil, fmt.Errorf("remap special regions: %w", err)
	}

	values := fips.Strings()
	for i := range values {
		if code, ok := SpecialRegions[county.Str(i)]; ok {
			values[i] = code
		}
	}

	out := f.Take(allRows(f.Len()))
	remapped := frame.NewStringColumn(ColFIPS, values)
	if fips.Type() == frame.Category {
		remapped = frame.NewCategoryColumn(ColFIPS, values)
	}
	if err := out.Set(remapped); err != nil {
		return nil, fmt.Errorf("remap special regions: %w", err)
	}
	return out, nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
