package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typesOf(f *Frame) map[string]DataType {
	out := map[string]DataType{}
	for _, c := range f.Columns() {
		out[c.Name()] = c.Type()
	}
	return out
}

func TestOptimize_Conversions(t *testing.T) {
	f := mustFrame(t,
		NewStringColumn("date", []string{"2020-03-01", "2020-03-01", "2020-03-02", "2020-03-02", ""}),
		NewStringColumn("state", []string{"WA", "WA", "WA", "WA", "NY"}),
		NewStringColumn("county", []string{"a", "b", "c", "d", "e"}),
		NewStringColumn("fips", []string{"53061", "53061", "53061", "53061", "53033"}),
		NewIntColumn("small", []int64{0, 1, -5, 127, 3}),
		NewIntColumn("medium", []int64{0, 40000, 1, 2, 3}),
		NewIntColumn("large", []int64{0, 1 << 40, 1, 2, 3}),
		NewFloatColumn("exact", []float64{0.5, math.NaN(), 2, 100000, 3}),
		NewFloatColumn("inexact", []float64{0.1, 1, 2, 3, 4}),
	)

	got := Optimize(f)

	assert.Equal(t, map[string]DataType{
		"date":    Date,
		"state":   Category,
		"county":  String,
		"fips":    Category,
		"small":   Int8,
		"medium":  Int32,
		"large":   Int64,
		"exact":   Float32,
		"inexact": Float64,
	}, typesOf(got))

	date, err := got.Column("date")
	require.NoError(t, err)
	assert.Equal(t, day(2), date.Time(2))
	assert.True(t, date.IsMissing(4))
}

func TestOptimize_KeepsValues(t *testing.T) {
	f := mustFrame(t,
		NewStringColumn("state", []string{"WA", "WA", "WA", "NY"}),
		NewIntColumn("cases", []int64{1, 2, 3, 4}),
		NewFloatColumn("rate", []float64{0.5, 0.25, math.NaN(), 8}),
	)

	got := Optimize(f)
	for _, name := range f.Names() {
		before, err := f.Column(name)
		require.NoError(t, err)
		after, err := got.Column(name)
		require.NoError(t, err)
		assert.Equal(t, before.Strings(), after.Strings(), name)
	}
}

func TestOptimize_UnparseableTextUnchanged(t *testing.T) {
	f := mustFrame(t, NewStringColumn("when", []string{"2020-03-01", "yesterday"}))

	got := Optimize(f)
	c, err := got.Column("when")
	require.NoError(t, err)
	assert.Equal(t, String, c.Type())
	assert.Equal(t, []string{"2020-03-01", "yesterday"}, c.Strings())
}

func TestOptimize_Idempotent(t *testing.T) {
	f := mustFrame(t,
		NewStringColumn("date", []string{"2020-03-01", "2020-03-02", "2020-03-03"}),
		NewStringColumn("state", []string{"WA", "WA", "WA"}),
		NewIntColumn("cases", []int64{1, 300, 70000}),
		NewFloatColumn("rate", []float64{0.5, 0.1, 3}),
	)

	once := Optimize(f)
	twice := Optimize(once)

	assert.Equal(t, typesOf(once), typesOf(twice))
	for _, name := range once.Names() {
		a, err := once.Column(name)
		require.NoError(t, err)
		b, err := twice.Column(name)
		require.NoError(t, err)
		assert.Equal(t, a.Strings(), b.Strings(), name)
	}
}

func TestOptimize_EmptyFrame(t *testing.T) {
	f := mustFrame(t, NewStringColumn("state", []string{}))
	got := Optimize(f)
	c, err := got.Column("state")
	require.NoError(t, err)
	assert.Equal(t, String, c.Type())
}
