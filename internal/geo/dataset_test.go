package geo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquagraph/aquagraph/internal/geo"
)

func TestEmbeddedDataset_Regions(t *testing.T) {
	ds, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)

	regions, err := ds.Regions(context.Background(), "DZ")
	require.NoError(t, err)
	require.Len(t, regions, 58)

	assert.Equal(t, "01", regions[0].ISOCode)
	assert.Equal(t, "58", regions[len(regions)-1].ISOCode)

	algiers, err := ds.Region(context.Background(), "dz", "16")
	require.NoError(t, err)
	assert.Equal(t, "Algiers", algiers.Name)
	assert.Equal(t, "DZ", algiers.CountryCode)
}

func TestEmbeddedDataset_Algiers(t *testing.T) {
	ds, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)

	city, err := ds.City(context.Background(), "DZ", "16", "Algiers")
	require.NoError(t, err)

	assert.Equal(t, "36.73225000", city.Latitude)
	assert.Equal(t, "3.08746000", city.Longitude)
	assert.Equal(t, "16", city.RegionCode)
}

func TestEmbeddedDataset_CitiesSortedByName(t *testing.T) {
	ds, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)

	cities, err := ds.Cities(context.Background(), "DZ", "31")
	require.NoError(t, err)
	require.NotEmpty(t, cities)

	for i := 1; i < len(cities); i++ {
		assert.LessOrEqual(t, cities[i-1].Name, cities[i].Name)
	}
}

func TestEmbeddedDataset_NotFound(t *testing.T) {
	ds, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ds.Regions(ctx, "FR")
	assert.ErrorIs(t, err, geo.ErrCountryNotFound)

	_, err = ds.Region(ctx, "DZ", "99")
	assert.ErrorIs(t, err, geo.ErrRegionNotFound)

	_, err = ds.Cities(ctx, "DZ", "99")
	assert.ErrorIs(t, err, geo.ErrRegionNotFound)

	_, err = ds.City(ctx, "DZ", "16", "Atlantis")
	assert.ErrorIs(t, err, geo.ErrCityNotFound)
}

func TestNewDataset_InvalidJSON(t *testing.T) {
	_, err := geo.NewDataset([]byte("{"))
	assert.Error(t, err)
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dz.json")
	doc := `{"countries":[{"isoCode":"DZ","name":"Algeria","regions":[
		{"isoCode":"16","name":"Algiers","cities":[
			{"name":"Algiers","latitude":"36.73225000","longitude":"3.08746000"},
			{"name":"Zéralda","latitude":"36.71169000","longitude":"2.84244000"}]}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	ds, err := geo.LoadDataset(path)
	require.NoError(t, err)

	cities, err := ds.Cities(t.Context(), "DZ", "16")
	require.NoError(t, err)
	assert.Len(t, cities, 2)

	_, err = geo.LoadDataset(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
