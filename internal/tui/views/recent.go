package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/storetap/internal/tui/styles"
)

// RecentEntry is a previously opened run database.
type RecentEntry struct {
	Path     string
	Brand    string
	OpenedAt time.Time
}

type RecentModel struct {
	entries []RecentEntry
	cursor  int
}

func NewRecentModel(entries []RecentEntry) RecentModel {
	return RecentModel{entries: entries}
}

func (m RecentModel) Init() tea.Cmd {
	return nil
}

func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		if m.cursor < len(m.entries) {
			path := m.entries[m.cursor].Path
			if _, err := os.Stat(path); err != nil {
				return m, nil
			}
			return m, func() tea.Msg { return NavigateToExplorer{DBPath: path} }
		}
	case "esc":
		return m, func() tea.Msg { return NavigateToHome{} }
	}
	return m, nil
}

func (m RecentModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Recent Runs"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).Render("No recent runs"))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	muted := lipgloss.NewStyle().Foreground(styles.Muted)
	for i, entry := range m.entries {
		cursor, style := "  ", styles.InactiveItem
		if i == m.cursor {
			cursor, style = "> ", styles.ActiveItem
		}

		name := style.Render(filepath.Base(entry.Path))
		if _, err := os.Stat(entry.Path); os.IsNotExist(err) {
			name = lipgloss.NewStyle().Foreground(styles.Error).Strikethrough(true).
				Render(filepath.Base(entry.Path))
		}
		brand := ""
		if entry.Brand != "" {
			brand = muted.Render(" [" + entry.Brand + "]")
		}
		meta := muted.Render(fmt.Sprintf("  %s  %s", filepath.Dir(entry.Path), timeAgo(entry.OpenedAt)))

		b.WriteString(fmt.Sprintf("%s%s%s\n%s\n", cursor, name, brand, meta))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open • esc back"))

	return styles.Border.Render(b.String())
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// NavigateToRecent signals navigation to the recent runs view.
type NavigateToRecent struct{}
