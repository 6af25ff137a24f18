package tui

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_MissingFile(t *testing.T) {
	h := &History{Path: filepath.Join(t.TempDir(), "none.json")}
	entries, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_AddMovesToFront(t *testing.T) {
	dir := t.TempDir()
	h := &History{Path: filepath.Join(dir, "cfg", "recent.json")}
	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")

	require.NoError(t, h.Add(a, "starbucks"))
	require.NoError(t, h.Add(b, "raisingcanes"))
	require.NoError(t, h.Add(a, ""))

	entries, err := h.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].Path)
	assert.Equal(t, "starbucks", entries[0].Brand)
	assert.Equal(t, b, entries[1].Path)
}

func TestHistory_Capped(t *testing.T) {
	dir := t.TempDir()
	h := &History{Path: filepath.Join(dir, "recent.json")}
	for i := range maxRecent + 5 {
		require.NoError(t, h.Add(filepath.Join(dir, fmt.Sprintf("%d.db", i)), ""))
	}

	entries, err := h.Load()
	require.NoError(t, err)
	assert.Len(t, entries, maxRecent)
	assert.Equal(t, filepath.Join(dir, fmt.Sprintf("%d.db", maxRecent+4)), entries[0].Path)
}
