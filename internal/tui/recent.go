package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

const maxRecent = 10

// RecentEntry is one remembered run database.
type RecentEntry struct {
	Path     string    `json:"path"`
	Brand    string    `json:"brand,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
}

// History persists recently opened run databases as JSON.
type History struct {
	Path string
}

// DefaultHistory stores history under the user config directory.
func DefaultHistory() *History {
	cfg, err := os.UserConfigDir()
	if err != nil {
		cfg = os.TempDir()
	}
	return &History{Path: filepath.Join(cfg, "storetap", "recent.json")}
}

// Load returns the entries newest first. A missing file yields no entries.
func (h *History) Load() ([]RecentEntry, error) {
	data, err := os.ReadFile(h.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "tui: read history")
	}
	var entries []RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrap(err, "tui: decode history")
	}
	return entries, nil
}

// Add moves dbPath to the front, keeping at most maxRecent entries.
func (h *History) Add(dbPath, brand string) error {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}

	entries, _ := h.Load()
	filtered := make([]RecentEntry, 0, len(entries)+1)
	filtered = append(filtered, RecentEntry{Path: abs, Brand: brand, OpenedAt: time.Now()})
	for _, e := range entries {
		if e.Path == abs {
			if brand == "" {
				filtered[0].Brand = e.Brand
			}
			continue
		}
		filtered = append(filtered, e)
	}
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return eris.Wrap(err, "tui: encode history")
	}
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return eris.Wrap(err, "tui: create history dir")
	}
	return eris.Wrap(os.WriteFile(h.Path, data, 0o644), "tui: write history")
}
