// Package domain models the New York Times county-level COVID-19 feed and
// derives per-region metrics from it.
//
// # Data Source
//
// The feed is the cumulative county file published at
// https://github.com/nytimes/covid-19-data (us-counties.csv), one row per
// county per day:
//
//	date,county,state,fips,cases,deaths
//	2020-03-01,Snohomish,Washington,53061,1,0
//
// cases and deaths are cumulative counts. They are non-decreasing in
// principle, but reporting corrections occasionally make a county's total
// drop from one day to the next.
//
// # Region Identifiers
//
// fips is a five-digit county code kept as text (leading zeros matter).
// Three aggregate regions are reported without a usable code and are keyed
// by county name instead:
//
//	New York City -> 36NYC   (the five boroughs combined)
//	Kansas City   -> 29KCM   (Kansas City, MO, reported apart from its counties)
//	Joplin        -> 29JOP   (Joplin, MO, reported apart from its counties)
//
// The reference table uses the same three codes. See [RemapSpecialRegions].
//
// # Derived Metrics
//
// Every per-region transform reads the region's rows in ascending date
// order; ties across regions are broken by the region keys so output order
// is deterministic.
//
//	<m>_per_100k          m / population * 100000
//	case_/death_density   <m>_per_100k / area          (optional)
//	new_<c>               first difference, first row 0, clipped >= 0
//	new_<c>_7sg, _15sg    degree-1 Savitzky-Golay smoothing, clipped >= 0
//	delta_new_<c>         first difference of new_<c>, may be negative
//	delta_new_<c>_7sg,... smoothing of delta_new_<c>, may be negative
//	new_<c>_7d            trailing 7-row mean of new_<c>     (optional)
//	days                  days since the earliest date in the table
//	mortality_rate        deaths / cases, missing when cases is 0
//
// A region with fewer rows than the smoothing window is smoothed with the
// largest odd window that fits; one or two rows pass through unsmoothed.
// See [Savgol].
//
// # Cluster Mode
//
// Counties can be collapsed into (state, cluster) groups before any rate
// is computed. Rates are then per-cluster totals over the summed
// population, and the region keys become state and cluster.
package domain
