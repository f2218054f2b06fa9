// Command genmock writes a deterministic synthetic county feed and matching
// reference table, for running the etl command without network access.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -feed-out data/mock/us-counties.csv \
//	  -ref-out data/mock/dem_df_to_merge.csv
//
//	FEED_URL=file://$PWD/data/mock/us-counties.csv \
//	REFERENCE_PATH=data/mock/dem_df_to_merge.csv go run ./cmd/etl
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
)

var baseDate = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

type county struct {
	name    string
	state   string
	fips    string // as reported in the feed; blank for aggregate regions
	refFIPS string // key in the reference table; blank when absent from it
	pop     int64
	area    float64
	cluster int64
	lat     float64
	lon     float64
}

var counties = []county{
	{"Snohomish", "Washington", "53061", "53061", 822083, 2087.27, 1, 48.05, -121.72},
	{"King", "Washington", "53033", "53033", 2252782, 2115.57, 1, 47.49, -121.83},
	{"Autauga", "Alabama", "01001", "01001", 55869, 594.44, 3, 32.53, -86.64},
	{"New York City", "New York", "", "36NYC", 8336817, 302.64, 2, 40.71, -74.01},
	{"Kansas City", "Missouri", "", "29KCM", 495327, 314.95, 2, 39.10, -94.58},
	{"Joplin", "Missouri", "", "29JOP", 50925, 35.57, 3, 37.08, -94.51},
	{"Jackson", "Missouri", "29095", "29095", 703011, 604.46, 2, 39.01, -94.35},
	{"Unknown", "Guam", "66010", "", 0, 0, 0, 0, 0},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedOut := flag.String("feed-out", "", "output path for the synthetic county feed")
	refOut := flag.String("ref-out", "", "output path for the synthetic reference table")
	days := flag.Int("days", 60, "number of days to generate")
	seed := flag.Uint64("seed", 20200301, "random seed")
	flag.Parse()

	if *feedOut == "" || *refOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed-out, -ref-out")
	}
	if *days < 1 {
		return fmt.Errorf("-days must be positive, got %d", *days)
	}

	feed, err := generateFeed(*days, *seed)
	if err != nil {
		return fmt.Errorf("generate feed: %w", err)
	}
	ref, err := generateReference()
	if err != nil {
		return fmt.Errorf("generate reference: %w", err)
	}

	if err := writeCSV(*feedOut, feed); err != nil {
		return err
	}
	if err := writeCSV(*refOut, ref); err != nil {
		return err
	}
	log.Printf("feed: %d rows -> %s", feed.Len(), *feedOut)
	log.Printf("reference: %d rows -> %s", ref.Len(), *refOut)
	return nil
}

// generateFeed emits cumulative counts for every county and day. Counts
// mostly grow, with an occasional downward correction so clipping has
// something to do.
func generateFeed(days int, seed uint64) (*frame.Frame, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := days * len(counties)
	var (
		dates  = make([]time.Time, 0, n)
		names  = make([]string, 0, n)
		states = make([]string, 0, n)
		fips   = make([]string, 0, n)
		cases  = make([]int64, 0, n)
		deaths = make([]int64, 0, n)
	)

	totals := make([][2]int64, len(counties))
	for d := 0; d < days; d++ {
		for i, c := range counties {
			growth := int64(rng.IntN(int(c.pop/20000) + 5))
			if rng.IntN(15) == 0 && totals[i][0] > 3 {
				growth = -int64(rng.IntN(3) + 1)
			}
			totals[i][0] = max(0, totals[i][0]+growth)
			if rng.IntN(8) == 0 {
				totals[i][1]++
			}
			totals[i][1] = min(totals[i][0], totals[i][1])

			dates = append(dates, baseDate.AddDate(0, 0, d))
			names = append(names, c.name)
			states = append(states, c.state)
			fips = append(fips, c.fips)
			cases = append(cases, totals[i][0])
			deaths = append(deaths, totals[i][1])
		}
	}

	return frame.New(
		frame.NewDateColumn(domain.ColDate, dates),
		frame.NewStringColumn(domain.ColCounty, names),
		frame.NewStringColumn(domain.ColState, states),
		frame.NewStringColumn(domain.ColFIPS, fips),
		frame.NewIntColumn(domain.ColCases, cases),
		frame.NewIntColumn(domain.ColDeaths, deaths),
	)
}

// generateReference emits one row per county with a reference key. The
// population column uses the raw "population" name the reader normalizes.
func generateReference() (*frame.Frame, error) {
	var (
		fips    []string
		names   []string
		pop     []int64
		area    []float64
		cluster []int64
		lat     []float64
		lon     []float64
	)
	for _, c := range counties {
		if c.refFIPS == "" {
			continue
		}
		fips = append(fips, c.refFIPS)
		names = append(names, c.name)
		pop = append(pop, c.pop)
		area = append(area, c.area)
		cluster = append(cluster, c.cluster)
		lat = append(lat, c.lat)
		lon = append(lon, c.lon)
	}
	return frame.New(
		frame.NewStringColumn(domain.ColFIPS, fips),
		frame.NewStringColumn(domain.ColCounty, names),
		frame.NewIntColumn(domain.ColPopulation, pop),
		frame.NewFloatColumn(domain.ColArea, area),
		frame.NewIntColumn(domain.ColCluster, cluster),
		frame.NewFloatColumn(domain.ColLat, lat),
		frame.NewFloatColumn(domain.ColLon, lon),
	)
}

func writeCSV(path string, f *frame.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := frame.WriteCSV(file, f); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
