package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/storetap/internal/engine/dedup"
	"github.com/rendis/storetap/internal/engine/export"
	"github.com/rendis/storetap/internal/engine/storage"
	"github.com/rendis/storetap/internal/model"
	"github.com/rendis/storetap/internal/tui/components"
	"github.com/rendis/storetap/internal/tui/styles"
)

type focusArea int

const (
	focusTable focusArea = iota
	focusFilter
	focusCard
)

// ExplorerModel browses the locations stored by a run.
type ExplorerModel struct {
	dbPath    string
	records   []model.Record
	filtered  []model.Record
	table     table.Model
	filter    textinput.Model
	coverage  components.CoverageMap
	focus     focusArea
	selected  int
	width     int
	height    int
	err       error
	exportMsg string

	cardScrollY int
	cardLines   []string
}

type dbLoadedMsg struct {
	Records []model.Record
	Err     error
}

func NewExplorerModel(dbPath string) ExplorerModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter..."
	filter.CharLimit = 50

	return ExplorerModel{
		dbPath:   dbPath,
		filter:   filter,
		coverage: components.NewCoverageMap(40, 10),
		selected: -1,
	}
}

func (m ExplorerModel) Init() tea.Cmd {
	path := m.dbPath
	return func() tea.Msg {
		records, err := loadRecords(path)
		return dbLoadedMsg{Records: records, Err: err}
	}
}

func loadRecords(dbPath string) ([]model.Record, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	store, err := storage.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.All()
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusTable:
			switch key {
			case "esc", "q":
				return m, func() tea.Msg { return NavigateToHome{} }
			case "/", "tab":
				m.focus = focusFilter
				m.filter.Focus()
				return m, textinput.Blink
			case "1":
				m.focus = focusCard
				m.table.SetStyles(unfocusedTableStyles())
				return m, nil
			case "e":
				m.exportCSV()
				return m, nil
			}

		case focusFilter:
			switch key {
			case "esc", "enter", "tab":
				m.focus = focusTable
				m.filter.Blur()
				return m, nil
			}

		case focusCard:
			maxScroll := max(len(m.cardLines)-m.panelHeight(), 0)
			switch key {
			case "esc":
				m.focus = focusTable
				m.table.SetStyles(focusedTableStyles())
				return m, nil
			case "up", "k":
				if m.cardScrollY > 0 {
					m.cardScrollY--
				}
				return m, nil
			case "down", "j":
				if m.cardScrollY < maxScroll {
					m.cardScrollY++
				}
				return m, nil
			}
		}

	case dbLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.records = msg.Records
		m.filtered = msg.Records
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusTable:
		m.table, cmd = m.table.Update(msg)
		if cursor := m.table.Cursor(); cursor != m.selected && cursor < len(m.filtered) {
			m.selected = cursor
			m.cardScrollY = 0
			m.cardLines = cardLines(m.filtered[cursor])
		}
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
	}

	return m, cmd
}

// refresh rebuilds the table, map and card after the filtered set changes.
func (m *ExplorerModel) refresh() {
	m.buildTable()
	points := make([]model.GeoPoint, 0, len(m.filtered))
	for _, r := range m.filtered {
		if r.HasPoint() {
			points = append(points, r.Point)
		}
	}
	m.coverage.SetPoints(points)

	m.cardScrollY = 0
	if len(m.filtered) == 0 {
		m.selected = -1
		m.cardLines = nil
		return
	}
	m.selected = 0
	m.cardLines = cardLines(m.filtered[0])
}

func (m *ExplorerModel) applyFilter() {
	words := strings.Fields(dedup.Normalize(m.filter.Value()))
	if len(words) == 0 {
		m.filtered = m.records
		m.refresh()
		return
	}

	m.filtered = nil
	for _, r := range m.records {
		haystack := dedup.Normalize(strings.Join([]string{
			r.Name, r.Line1, r.City, r.Region, r.PostalCode, r.ProviderID,
		}, " "))
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			m.filtered = append(m.filtered, r)
		}
	}
	m.refresh()
}

func cardLines(r model.Record) []string {
	lines := []string{r.Name, ""}

	addRow := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("%-10s %s", label, value))
		}
	}

	addRow("Brand:", r.Brand)
	addRow("ID:", r.ProviderID)
	addRow("Address:", strings.Join(nonEmpty(r.Line1, r.Line2, r.Line3), ", "))
	addRow("City:", strings.Join(nonEmpty(r.City, r.Region, r.PostalCode, r.CountryCode), ", "))
	addRow("Phone:", r.Phone)
	if r.HasPoint() {
		addRow("Coords:", r.Point.String())
	}
	addRow("Key:", r.Key)

	if len(r.Attrs) > 0 {
		lines = append(lines, "")
		keys := make([]string, 0, len(r.Attrs))
		for k := range r.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addRow(k+":", r.Attrs[k])
		}
	}
	return lines
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m *ExplorerModel) buildTable() {
	nameW, cityW, regionW, postalW, coordW := 30, 18, 6, 10, 22
	if m.width > 120 {
		extra := m.width - 120
		nameW += extra / 2
		cityW += extra / 4
	}

	columns := []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "City", Width: cityW},
		{Title: "Region", Width: regionW},
		{Title: "Postal", Width: postalW},
		{Title: "Coords", Width: coordW},
	}

	rows := make([]table.Row, len(m.filtered))
	for i, r := range m.filtered {
		coords := ""
		if r.HasPoint() {
			coords = r.Point.String()
		}
		rows[i] = table.Row{
			truncate(r.Name, nameW),
			truncate(r.City, cityW),
			r.Region,
			r.PostalCode,
			coords,
		}
	}

	height := max(m.height/2-4, 5)
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.focus == focusCard {
		t.SetStyles(unfocusedTableStyles())
	} else {
		t.SetStyles(focusedTableStyles())
	}
	m.table = t
}

func focusedTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	return s
}

func unfocusedTableStyles() table.Styles {
	s := focusedTableStyles()
	s.Header = s.Header.Foreground(styles.Muted)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Selection).
		Bold(false)
	return s
}

func (m ExplorerModel) panelHeight() int {
	return max(m.height/2-6, 6)
}

func (m *ExplorerModel) updateLayout() {
	if m.width <= 0 {
		return
	}
	m.coverage.SetSize(max(m.width/2-6, 20), m.panelHeight())
	m.buildTable()
}

func (m ExplorerModel) View() string {
	if m.err != nil {
		return styles.ErrorText.Render(fmt.Sprintf("Error loading DB: %v", m.err))
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("%s: %d locations", filepath.Base(m.dbPath), len(m.records))))
	if len(m.filtered) != len(m.records) {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf(" (showing %d)", len(m.filtered))))
	}
	b.WriteString("\n\n")

	filterStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	if m.focus == focusFilter {
		filterStyle = lipgloss.NewStyle().Foreground(styles.Primary)
	}
	b.WriteString(filterStyle.Render("Filter: "))
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	panelH := m.panelHeight()
	cardW := max(m.width/2-4, 30)
	cardColor := styles.Muted
	if m.focus == focusCard {
		cardColor = styles.Primary
	}
	cardBox := lipgloss.NewStyle().Bold(true).Foreground(cardColor).Render("[1] Details") + "\n" +
		styles.Box.BorderForeground(cardColor).Width(cardW).Height(panelH).
			Render(m.viewCard(cardW-2, panelH))
	mapBox := lipgloss.NewStyle().Bold(true).Foreground(styles.Muted).Render("Coverage") + "\n" +
		styles.Box.Height(panelH).Render(m.coverage.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cardBox, " ", mapBox))
	b.WriteString("\n\n")

	if m.exportMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Render(m.exportMsg))
		b.WriteString("\n")
	}

	var statusText string
	switch m.focus {
	case focusTable:
		statusText = "↑↓ navigate • 1 details • / filter • e export • esc back"
	case focusFilter:
		statusText = "type to filter • esc back"
	case focusCard:
		statusText = "↑↓ scroll • esc back to table"
	}
	b.WriteString(styles.StatusBar.Render(statusText))

	return b.String()
}

func (m ExplorerModel) viewCard(w, h int) string {
	if len(m.cardLines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).
			Render("Select a location\nto view details")
	}

	lines := m.cardLines
	scrollY := max(min(m.cardScrollY, len(lines)-h), 0)
	end := min(scrollY+h, len(lines))

	var sb strings.Builder
	for i, line := range lines[scrollY:end] {
		style := lipgloss.NewStyle().Foreground(styles.Text)
		if scrollY+i == 0 {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(truncate(line, w)))
		if scrollY+i < end-1 {
			sb.WriteString("\n")
		}
	}
	if end < len(lines) {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).Render("  ▼ more below"))
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// exportCSV writes the filtered rows next to the database.
func (m *ExplorerModel) exportCSV() {
	data := m.filtered
	if len(data) == 0 {
		data = m.records
	}
	base := strings.TrimSuffix(m.dbPath, filepath.Ext(m.dbPath))
	csvPath := base + "_view.csv"
	if err := export.WriteCSVFile(csvPath, data); err != nil {
		m.exportMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	m.exportMsg = fmt.Sprintf("Exported %d rows to %s", len(data), csvPath)
}
