package domain

import "math"

// Feed and reference column names.
const (
	ColDate       = "date"
	ColCounty     = "county"
	ColState      = "state"
	ColFIPS       = "fips"
	ColCases      = "cases"
	ColDeaths     = "deaths"
	ColTotalPop   = "total_pop"
	ColPopulation = "population"
	ColArea       = "area"
	ColCluster    = "cluster"
	ColLat        = "lat"
	ColLon        = "lon"
)

// Derived column names.
const (
	ColCasesPer100k  = "cases_per_100k"
	ColDeathsPer100k = "deaths_per_100k"
	ColCaseDensity   = "case_density"
	ColDeathDensity  = "death_density"
	ColDays          = "days"
	ColMortalityRate = "mortality_rate"
)

// Prefixes for differenced columns.
const (
	PrefixNew   = "new_"
	PrefixDelta = "delta_"
)

// Smoothing and rolling windows, in observations.
const (
	ShortWindow   = 7
	LongWindow    = 15
	RollingWindow = 7
)

// per100k scales a per-capita ratio.
const per100k = 100_000

// FeedColumns are required in the inbound feed.
var FeedColumns = []string{ColDate, ColCounty, ColState, ColFIPS, ColCases, ColDeaths}

// CountyKeys identify a region in county mode.
var CountyKeys = []string{ColFIPS}

// ClusterKeys identify a region after cluster aggregation.
var ClusterKeys = []string{ColState, ColCluster}

func nan() float64 { return math.NaN() }

func isMissing(v float64) bool { return math.IsNaN(v) }

// defined maps infinities to NaN so undefined arithmetic reads as missing.
func defined(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
