package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rendis/storetap/internal/tui/views"
)

type viewID int

const (
	viewHome viewID = iota
	viewProgress
	viewExplorer
	viewFilePicker
	viewRecent
)

// App is the root bubbletea model.
type App struct {
	currentView viewID
	width       int
	height      int
	version     string
	brand       string
	history     *History
	home        views.HomeModel
	progress    views.ProgressModel
	explorer    views.ExplorerModel
	filePicker  views.FilePickerModel
	recent      views.RecentModel
}

// NewCrawlApp opens on the progress view for job.
func NewCrawlApp(ctx context.Context, job views.CrawlJob, history *History) App {
	return App{
		currentView: viewProgress,
		brand:       job.Brand,
		history:     history,
		home:        views.NewHomeModel(""),
		progress:    views.NewProgressModel(ctx, job),
	}
}

// NewBrowserApp opens on dbPath, or on the launcher when dbPath is empty.
func NewBrowserApp(dbPath, version string, history *History) App {
	a := App{
		currentView: viewHome,
		version:     version,
		history:     history,
		home:        views.NewHomeModel(version),
	}
	if dbPath != "" {
		a.openExplorer(dbPath)
	}
	return a
}

func (a *App) openExplorer(dbPath string) {
	a.currentView = viewExplorer
	a.explorer = views.NewExplorerModel(dbPath)
	if a.history != nil {
		if err := a.history.Add(dbPath, a.brand); err != nil {
			zap.L().Warn("save recent run", zap.Error(err))
		}
	}
}

func (a App) Init() tea.Cmd {
	switch a.currentView {
	case viewProgress:
		return a.progress.Init()
	case viewExplorer:
		return a.explorer.Init()
	default:
		return a.home.Init()
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && a.currentView != viewProgress {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case views.NavigateToHome:
		a.currentView = viewHome
		return a, nil
	case views.NavigateToLoad:
		a.currentView = viewFilePicker
		a.filePicker = views.NewFilePickerModel("")
		return a, a.filePicker.Init()
	case views.NavigateToExplorer:
		a.openExplorer(msg.DBPath)
		return a, tea.Batch(a.explorer.Init(), a.sizeCmd())
	case views.NavigateToRecent:
		a.currentView = viewRecent
		var entries []RecentEntry
		if a.history != nil {
			var err error
			if entries, err = a.history.Load(); err != nil {
				zap.L().Warn("load recent runs", zap.Error(err))
			}
		}
		recent := make([]views.RecentEntry, 0, len(entries))
		for _, e := range entries {
			recent = append(recent, views.RecentEntry{Path: e.Path, Brand: e.Brand, OpenedAt: e.OpenedAt})
		}
		a.recent = views.NewRecentModel(recent)
		return a, a.recent.Init()
	}

	var cmd tea.Cmd
	var m tea.Model
	switch a.currentView {
	case viewHome:
		m, cmd = a.home.Update(msg)
		a.home = m.(views.HomeModel)
	case viewProgress:
		m, cmd = a.progress.Update(msg)
		a.progress = m.(views.ProgressModel)
	case viewExplorer:
		m, cmd = a.explorer.Update(msg)
		a.explorer = m.(views.ExplorerModel)
	case viewFilePicker:
		m, cmd = a.filePicker.Update(msg)
		a.filePicker = m.(views.FilePickerModel)
	case viewRecent:
		m, cmd = a.recent.Update(msg)
		a.recent = m.(views.RecentModel)
	}

	return a, cmd
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewHome:
		content = a.home.View()
	case viewProgress:
		content = a.progress.View()
	case viewExplorer:
		content = a.explorer.View()
	case viewFilePicker:
		content = a.filePicker.View()
	case viewRecent:
		content = a.recent.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

// RunCrawl shows job's progress until the user quits and returns the crawl error.
func RunCrawl(ctx context.Context, job views.CrawlJob, history *History) error {
	final, err := tea.NewProgram(NewCrawlApp(ctx, job, history), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	return final.(App).progress.Err()
}

// Browse opens the results browser.
func Browse(dbPath, version string, history *History) error {
	_, err := tea.NewProgram(NewBrowserApp(dbPath, version, history), tea.WithAltScreen()).Run()
	return err
}
