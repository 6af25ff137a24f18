package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{
			Key: "id:1", ProviderID: "1", Brand: "Starbucks", Name: "Pike Place",
			Line1: "1912 Pike Pl", City: "Seattle", Region: "WA", PostalCode: "98101", CountryCode: "US",
			Point: model.GeoPoint{Lat: 47.6101, Lng: -122.3421},
			Attrs: map[string]string{"slug": "pike-place", "ownership": "CO"},
		},
		{
			Key: "id:2", ProviderID: "2", Brand: "Starbucks", Name: "No coords, \"quoted\"",
			Attrs: map[string]string{"open": "true"},
		},
	}
}

func TestColumns(t *testing.T) {
	cols := Columns(sampleRecords())
	assert.Equal(t, baseColumns, cols[:len(baseColumns)])
	assert.Equal(t, []string{"open", "ownership", "slug"}, cols[len(baseColumns):])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}

	first := rows[1]
	assert.Equal(t, "id:1", first[idx["identity_key"]])
	assert.Equal(t, "47.6101", first[idx["lat"]])
	assert.Equal(t, "-122.3421", first[idx["lng"]])
	assert.Equal(t, "pike-place", first[idx["slug"]])
	assert.Empty(t, first[idx["open"]])

	second := rows[2]
	assert.Equal(t, `No coords, "quoted"`, second[idx["name"]])
	assert.Empty(t, second[idx["lat"]])
	assert.Equal(t, "true", second[idx["open"]])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, baseColumns, rows[0])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "starbucks.csv")
	require.NoError(t, WriteCSVFile(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pike Place")
}
