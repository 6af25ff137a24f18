package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/engine/storage"
	"github.com/rendis/storetap/internal/model"
)

func TestExportDB_DefaultOutput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "starbucks_20260101_000000.db")
	store, err := storage.NewStore(dbPath)
	require.NoError(t, err)
	_, err = store.InsertBatch([]model.Record{
		{Key: "id:1", Brand: "Starbucks", Name: "One", Point: model.GeoPoint{Lat: 40, Lng: -75}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	n, csvPath, err := exportDB(dbPath, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, strings.TrimSuffix(dbPath, ".db")+".csv", csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id:1")
}

func TestExportDB_RejectsNonDB(t *testing.T) {
	_, _, err := exportDB("stores.csv", "")
	assert.Error(t, err)
}
