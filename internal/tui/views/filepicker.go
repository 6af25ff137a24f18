package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/storetap/internal/tui/styles"
)

const pickerPage = 15

type pickerEntry struct {
	name    string
	dir     bool
	modTime time.Time
}

// FilePickerModel walks directories looking for crawl databases.
type FilePickerModel struct {
	dir     string
	entries []pickerEntry
	cursor  int
	err     error
}

func NewFilePickerModel(dir string) FilePickerModel {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	m := FilePickerModel{dir: dir}
	m.loadDir()
	return m
}

// loadDir lists subdirectories first, then .db files newest first.
func (m *FilePickerModel) loadDir() {
	items, err := os.ReadDir(m.dir)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil

	var dirs, dbs []pickerEntry
	for _, e := range items {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, pickerEntry{name: name, dir: true})
			continue
		}
		if filepath.Ext(name) != ".db" {
			continue
		}
		var mod time.Time
		if info, err := e.Info(); err == nil {
			mod = info.ModTime()
		}
		dbs = append(dbs, pickerEntry{name: name, modTime: mod})
	}
	sort.SliceStable(dbs, func(i, j int) bool { return dbs[i].modTime.After(dbs[j].modTime) })

	m.entries = append(dirs, dbs...)
	m.cursor = 0
}

func (m FilePickerModel) Init() tea.Cmd {
	return nil
}

func (m FilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor >= len(m.entries) {
			return m, nil
		}
		entry := m.entries[m.cursor]
		full := filepath.Join(m.dir, entry.name)
		if entry.dir {
			m.dir = full
			m.loadDir()
			return m, nil
		}
		return m, func() tea.Msg { return NavigateToExplorer{DBPath: full} }
	case "backspace":
		if parent := filepath.Dir(m.dir); parent != m.dir {
			m.dir = parent
			m.loadDir()
		}
	case "esc":
		return m, func() tea.Msg { return NavigateToHome{} }
	}
	return m, nil
}

func (m FilePickerModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Open Run"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render(m.dir))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		return styles.Border.Render(b.String())
	}
	if len(m.entries) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("No .db files or directories here"))
	}

	start := max(m.cursor-(pickerPage-3), 0)
	end := min(start+pickerPage, len(m.entries))
	for i := start; i < end; i++ {
		entry := m.entries[i]
		cursor, style := "  ", styles.InactiveItem
		if i == m.cursor {
			cursor, style = "> ", styles.ActiveItem
		}
		if entry.dir {
			b.WriteString(fmt.Sprintf("%s%s\n", cursor, style.Render(entry.name+"/")))
			continue
		}
		age := lipgloss.NewStyle().Foreground(styles.Muted).Render("  " + timeAgo(entry.modTime))
		b.WriteString(fmt.Sprintf("%s%s%s\n", cursor, style.Render(entry.name), age))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open • backspace parent dir • esc back"))

	return styles.Border.Render(b.String())
}
