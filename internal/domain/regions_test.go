package domain

import (
	"testing"

	"github.com/couchcryptid/county-covid-etl/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapSpecialRegions(t *testing.T) {
	f, err := frame.New(
		frame.NewStringColumn(ColCounty, []string{"New York City", "Kansas City", "Joplin", "Snohomish", "new york city"}),
		frame.NewStringColumn(ColFIPS, []string{"", "", "", "53061", ""}),
	)
	require.NoError(t, err)

	out, err := RemapSpecialRegions(f)
	require.NoError(t, err)

	fips, err := out.Column(ColFIPS)
	require.NoError(t, err)
	assert.Equal(t, []string{"36NYC", "29KCM", "29JOP", "53061", ""}, fips.Strings())

	orig, err := f.Column(ColFIPS)
	require.NoError(t, err)
	assert.Equal(t, "", orig.Str(0), "input frame is left untouched")
}

func TestRemapSpecialRegions_KeepsCategory(t *testing.T) {
	f, err := frame.New(
		frame.NewStringColumn(ColCounty, []string{"Joplin", "Jasper"}),
		frame.NewCategoryColumn(ColFIPS, []string{"", "29097"}),
	)
	require.NoError(t, err)

	out, err := RemapSpecialRegions(f)
	require.NoError(t, err)
	fips, err := out.Column(ColFIPS)
	require.NoError(t, err)
	assert.Equal(t, frame.Category, fips.Type())
	assert.Equal(t, []string{"29JOP", "29097"}, fips.Strings())
}

func TestRemapSpecialRegions_MissingColumn(t *testing.T) {
	f, err := frame.New(frame.NewStringColumn(ColFIPS, []string{"1"}))
	require.NoError(t, err)
	_, err = RemapSpecialRegions(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColCounty)
}
