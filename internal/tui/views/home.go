package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/storetap/internal/tui/styles"
)

type menuItem struct {
	key   string
	label string
	desc  string
}

// HomeModel is the launcher shown by `storetap view` without a database.
type HomeModel struct {
	items   []menuItem
	cursor  int
	version string
}

func NewHomeModel(version string) HomeModel {
	return HomeModel{
		version: version,
		items: []menuItem{
			{key: "o", label: "Open Run", desc: "Browse a crawl database (.db)"},
			{key: "r", label: "Recent Runs", desc: "Reopen a recently viewed run"},
			{key: "q", label: "Quit", desc: "Exit storetap"},
		},
	}
}

func (m HomeModel) Init() tea.Cmd {
	return nil
}

func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			return m, m.handleSelect()
		case "o":
			m.cursor = 0
			return m, m.handleSelect()
		case "r":
			m.cursor = 1
			return m, m.handleSelect()
		case "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m HomeModel) handleSelect() tea.Cmd {
	switch m.cursor {
	case 0:
		return func() tea.Msg { return NavigateToLoad{} }
	case 1:
		return func() tea.Msg { return NavigateToRecent{} }
	default:
		return tea.Quit
	}
}

func (m HomeModel) View() string {
	var b strings.Builder

	logo := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("  storetap")
	version := lipgloss.NewStyle().Foreground(styles.Muted).Render(" " + m.version)
	tagline := lipgloss.NewStyle().Foreground(styles.Secondary).Italic(true).
		Render("  Store locator crawler")

	b.WriteString(logo + version + "\n")
	b.WriteString(tagline + "\n\n")

	for i, item := range m.items {
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}
		key := lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true).
			Render(fmt.Sprintf("[%s]", item.key))
		desc := lipgloss.NewStyle().Foreground(styles.Muted).Render(" - " + item.desc)

		b.WriteString(fmt.Sprintf("%s%s %s%s\n", cursor, key, style.Render(item.label), desc))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("↑↓ navigate • enter select • q quit"))

	return styles.Border.Render(b.String())
}

// Navigation messages
type NavigateToHome struct{}
type NavigateToLoad struct{}
