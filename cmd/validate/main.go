// Command validate checks an output table written by the etl command
// against the invariants every run must satisfy: required columns present,
// clipped columns non-negative, first differences zero at each region's
// first observation, and day offsets anchored at zero.
//
// Usage:
//
//	go run ./cmd/validate -output data/nyt_df.csv
//	go run ./cmd/validate -output data/nyt_df_cluster.csv -cluster
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/county-covid-etl/internal/domain"
	"github.com/couchcryptid/county-covid-etl/internal/frame"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the detail lines printed per phase.
const maxReported = 20

func main() {
	output := flag.String("output", "", "path to the output CSV to validate")
	cluster := flag.Bool("cluster", false, "the output was produced in cluster mode")
	flag.Parse()

	if *output == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *output, *cluster))
}

func run(w io.Writer, path string, cluster bool) int {
	fmt.Fprintln(w, "=== COVID Output Validation ===")
	fmt.Fprintln(w)

	f, err := load(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load output: %v\n", err)
		return 1
	}

	keys := domain.CountyKeys
	if cluster {
		keys = domain.ClusterKeys
	}

	schema := validateSchema(f, keys)
	phases := []*phase{schema}
	if schema.passed() {
		phases = append(phases,
			validateClipped(f),
			validateFirstDifferences(f, keys),
			validateDays(f),
			validateMortality(f),
		)
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d, columns: %d\n", f.Len(), len(f.Names()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func load(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := frame.ReadCSV(file, frame.ReadOptions{StringColumns: []string{domain.ColFIPS, domain.ColState}})
	if err != nil {
		return nil, err
	}
	return frame.Optimize(f), nil
}

// ── Phases ──

func validateSchema(f *frame.Frame, keys []string) *phase {
	p := &phase{name: "Phase 1: Required columns"}
	required := append([]string{
		domain.ColDate, domain.ColCases, domain.ColDeaths,
		domain.ColCasesPer100k, domain.ColDeathsPer100k,
		domain.PrefixNew + domain.ColCases, domain.PrefixNew + domain.ColDeaths,
		domain.ColDays, domain.ColMortalityRate,
	}, keys...)
	for _, name := range required {
		if !f.Has(name) {
			p.errorf("missing column %q", name)
		}
	}
	if f.Has(domain.ColTotalPop) {
		p.errorf("column %q should have been dropped", domain.ColTotalPop)
	}
	if c, err := f.Column(domain.ColDate); err == nil && c.Type() != frame.Date {
		p.errorf("column %q is %s, want dates", domain.ColDate, c.Type())
	}
	return p
}

// validateClipped checks every column derived from a clipped first
// difference. delta_ columns are allowed to go negative.
func validateClipped(f *frame.Frame) *phase {
	p := &phase{name: "Phase 2: Clipped columns non-negative"}
	for _, c := range f.Columns() {
		if !strings.HasPrefix(c.Name(), domain.PrefixNew) || !c.IsNumeric() {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			if v := c.Float(i); v < 0 {
				p.errorf("row %d: %s = %g", i+2, c.Name(), v)
			}
		}
	}
	return p
}

// validateFirstDifferences checks that the unsmoothed difference columns
// are zero on each region's earliest row.
func validateFirstDifferences(f *frame.Frame, keys []string) *phase {
	p := &phase{name: "Phase 3: First difference zero per region"}
	sorted, err := f.SortBy(append([]string{domain.ColDate}, keys...)...)
	if err != nil {
		p.errorf("sort: %v", err)
		return p
	}
	groups, err := sorted.Groups(keys...)
	if err != nil {
		p.errorf("group: %v", err)
		return p
	}

	var diffCols []*frame.Column
	for _, c := range sorted.Columns() {
		if isRawDifference(c.Name()) {
			diffCols = append(diffCols, c)
		}
	}
	for _, g := range groups {
		first := g.Rows[0]
		for _, c := range diffCols {
			if v := c.Float(first); v != 0 {
				p.errorf("region %s: first %s = %g", strings.ReplaceAll(g.Key, "\x1f", "/"), c.Name(), v)
			}
		}
	}
	return p
}

func isRawDifference(name string) bool {
	if !strings.HasPrefix(name, domain.PrefixNew) && !strings.HasPrefix(name, domain.PrefixDelta) {
		return false
	}
	return !hasWindowSuffix(name)
}

// hasWindowSuffix reports whether name ends in a smoothing or rolling
// suffix such as _7sg or _7d.
func hasWindowSuffix(name string) bool {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return false
	}
	digits, ok := strings.CutSuffix(name[i+1:], "sg")
	if !ok {
		if digits, ok = strings.CutSuffix(name[i+1:], "d"); !ok {
			return false
		}
	}
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validateDays(f *frame.Frame) *phase {
	p := &phase{name: "Phase 4: Day offsets"}
	days, err := f.Column(domain.ColDays)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if !days.Type().IsInt() {
		p.errorf("column %q is %s, want integers", domain.ColDays, days.Type())
		return p
	}
	minDays := int64(-1)
	for i := 0; i < days.Len(); i++ {
		d := days.Int(i)
		if d < 0 {
			p.errorf("row %d: days = %d", i+2, d)
		}
		if minDays < 0 || d < minDays {
			minDays = d
		}
	}
	if days.Len() > 0 && minDays != 0 {
		p.errorf("earliest day offset is %d, want 0", minDays)
	}
	return p
}

func validateMortality(f *frame.Frame) *phase {
	p := &phase{name: "Phase 5: Mortality rate"}
	cases, _ := f.Column(domain.ColCases)
	deaths, _ := f.Column(domain.ColDeaths)
	rate, _ := f.Column(domain.ColMortalityRate)
	for i := 0; i < f.Len(); i++ {
		c := cases.Float(i)
		switch {
		case c == 0 && !rate.IsMissing(i):
			p.errorf("row %d: mortality_rate = %g with zero cases", i+2, rate.Float(i))
		case c != 0 && !floatEq(rate.Float(i), deaths.Float(i)/c):
			p.errorf("row %d: mortality_rate = %g, want %g", i+2, rate.Float(i), deaths.Float(i)/c)
		}
	}
	return p
}

// floatEq tolerates the float32 narrowing the optimizer may apply.
func floatEq(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-6*max(1, b)
}
