package domain

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
)

// Options selects which derived column families Derive produces.
type Options struct {
	// Keys identify a region: CountyKeys or ClusterKeys.
	Keys []string
	// Density adds case_density and death_density from the area column.
	Density bool
	// Smoothing adds the _7sg/_15sg families and the delta_ families.
	Smoothing bool
	// RollingMean adds trailing 7-observation means of the new_ columns.
	RollingMean bool
}

// DefaultOptions is the full composition for county or cluster mode.
func DefaultOptions(cluster bool) Options {
	keys := CountyKeys
	if cluster {
		keys = ClusterKeys
	}
	return Options{Keys: keys, Smoothing: true}
}

// Derive computes every derived metric for a joined (and optionally
// aggregated) table holding date, the region keys, cases, deaths and
// total_pop. The population column is consumed by the rate step and is not
// part of the result. Rows come back sorted by date then region keys.
func Derive(f *frame.Frame, opts Options) (*frame.Frame, error) {
	if len(opts.Keys) == 0 {
		return nil, errors.New("derive: no region keys")
	}
	required := append([]string{ColDate, ColCases, ColDeaths, ColTotalPop}, opts.Keys...)
	area := ""
	if opts.Density {
		area = ColArea
		required = append(required, ColArea)
	}
	if err := f.Require(required...); err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}

	df, cols, err := AddRateCols(f, ColTotalPop, area)
	if err != nil {
		return nil, err
	}
	df = df.Drop(ColTotalPop)

	df, newCols, err := AddChangeCols(df, opts.Keys, cols, PrefixNew, true)
	if err != nil {
		return nil, fmt.Errorf("derive new cols: %w", err)
	}

	if opts.RollingMean {
		if df, _, err = AddRollingMeanCols(df, opts.Keys, newCols, RollingWindow); err != nil {
			return nil, fmt.Errorf("derive rolling mean: %w", err)
		}
	}

	if opts.Smoothing {
		if df, err = addSmoothedFamilies(df, opts.Keys, newCols); err != nil {
			return nil, err
		}
	}

	if df, err = AddDays(df); err != nil {
		return nil, err
	}
	return AddMortalityRate(df)
}

// addSmoothedFamilies adds the clipped 7/15 smoothing of the new_ columns,
// their unclipped first difference, and its unclipped 7/15 smoothing.
func addSmoothedFamilies(df *frame.Frame, keys, newCols []string) (*frame.Frame, error) {
	var err error
	for _, w := range []int{ShortWindow, LongWindow} {
		if df, _, err = AddSavgolCols(df, keys, newCols, w, true); err != nil {
			return nil, fmt.Errorf("derive new cols %dsg: %w", w, err)
		}
	}

	df, deltaCols, err := AddChangeCols(df, keys, newCols, PrefixDelta, false)
	if err != nil {
		return nil, fmt.Errorf("derive delta cols: %w", err)
	}

	for _, w := range []int{ShortWindow, LongWindow} {
		if df, _, err = AddSavgolCols(df, keys, deltaCols, w, false); err != nil {
			return nil, fmt.Errorf("derive delta cols %dsg: %w", w, err)
		}
	}
	return df, nil
}
