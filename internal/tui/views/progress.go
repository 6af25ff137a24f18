package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/rendis/storetap/internal/engine/crawler"
	"github.com/rendis/storetap/internal/model"
	"github.com/rendis/storetap/internal/tui/components"
	"github.com/rendis/storetap/internal/tui/styles"
)

// CrawlJob describes a crawl driven by the progress view. Run must honor ctx
// and call onRecords with every batch of accepted records.
type CrawlJob struct {
	Brand    string
	DBPath   string
	MaxCells int
	Frame    *orb.Bound
	Stats    *crawler.Stats
	Run      func(ctx context.Context, onRecords func([]model.Record)) error
}

// sharedState holds data written by the crawl goroutine and read by the view.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu     sync.Mutex
	points []model.GeoPoint
	cancel context.CancelFunc
}

func (s *sharedState) addRecords(recs []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if r.HasPoint() {
			s.points = append(s.points, r.Point)
		}
	}
}

func (s *sharedState) snapshot() []model.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GeoPoint(nil), s.points...)
}

func (s *sharedState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// ProgressModel shows a running crawl.
type ProgressModel struct {
	job         CrawlJob
	ctx         context.Context
	spinner     spinner.Model
	progress    progress.Model
	coverage    components.CoverageMap
	startTime   time.Time
	done        bool
	stopping    bool
	quitting    bool
	confirmStop bool
	err         error
	width       int
	height      int
	shared      *sharedState
}

type progressTickMsg time.Time

// CrawlDoneMsg reports that the crawl goroutine returned.
type CrawlDoneMsg struct {
	Err error
}

func NewProgressModel(parent context.Context, job CrawlJob) ProgressModel {
	if job.Stats == nil {
		job.Stats = &crawler.Stats{}
	}
	ctx, cancel := context.WithCancel(parent)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	cov := components.NewCoverageMap(48, 12)
	cov.SetFrame(job.Frame)

	return ProgressModel{
		job:       job,
		ctx:       ctx,
		spinner:   sp,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(48)),
		coverage:  cov,
		startTime: time.Now(),
		shared:    &sharedState{cancel: cancel},
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) startCrawl() tea.Cmd {
	shared := m.shared
	job := m.job
	ctx := m.ctx
	return func() tea.Msg {
		if job.Run == nil {
			return CrawlDoneMsg{}
		}
		err := job.Run(ctx, shared.addRecords)
		shared.stop()
		return CrawlDoneMsg{Err: err}
	}
}

// Done reports whether the crawl has returned.
func (m ProgressModel) Done() bool { return m.done }

// Err is the error the crawl returned, if any.
func (m ProgressModel) Err() error { return m.err }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.coverage.SetSize(min(max(m.width-40, 24), 80), 12)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// Stop and wait for in-flight queries so results still get written.
			m.shared.stop()
			m.stopping = true
			m.quitting = true
			if m.done {
				return m, tea.Quit
			}
			return m, nil
		case "q":
			if m.done {
				return m, tea.Quit
			}
		case "esc":
			if m.done {
				return m, tea.Quit
			}
			if m.confirmStop {
				m.shared.stop()
				m.stopping = true
				m.confirmStop = false
				return m, nil
			}
			m.confirmStop = true
			return m, nil
		case "enter":
			if m.done {
				return m, func() tea.Msg { return NavigateToExplorer{DBPath: m.job.DBPath} }
			}
			if m.confirmStop {
				m.confirmStop = false
				return m, nil
			}
		}
		if m.confirmStop {
			m.confirmStop = false
		}
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		m.coverage.SetPoints(m.shared.snapshot())
		return m, tickCmd()
	case CrawlDoneMsg:
		m.done = true
		m.err = msg.Err
		m.coverage.SetPoints(m.shared.snapshot())
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	pModel, cmd := m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	var b strings.Builder
	stats := m.job.Stats

	header := fmt.Sprintf("Crawling %s", m.job.Brand)
	if !m.done {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(styles.Title.Render(header))
	b.WriteString("\n\n")

	statsBox := styles.Box.Width(30).Render(m.renderStats())
	mapBox := styles.Box.Render(m.coverage.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statsBox, " ", mapBox))
	b.WriteString("\n\n")

	if m.job.MaxCells > 0 {
		pct := float64(stats.CellsVisited.Load()) / float64(m.job.MaxCells)
		b.WriteString(m.progress.ViewAs(min(pct, 1)))
		b.WriteString("\n\n")
	}

	switch {
	case m.done:
		if m.err != nil {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
				Render(fmt.Sprintf("Complete (%s): %d locations", stats.StopReason(), stats.RecordsAccepted.Load())))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
				Render(fmt.Sprintf("Database: %s", m.job.DBPath)))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("enter explore results • q quit"))
	case m.stopping:
		b.WriteString(styles.WarnText.Render("Stopping, waiting for in-flight queries..."))
	case m.confirmStop:
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the crawl"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(styles.StatusBar.Render("esc stop • ctrl+c stop and quit"))
	}

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	stats := m.job.Stats
	elapsed := time.Since(m.startTime).Truncate(time.Second)
	if m.done {
		elapsed = stats.Elapsed().Truncate(time.Second)
	}

	row := func(label, value string, style lipgloss.Style) {
		sb.WriteString(styles.StatLabel.Render(label))
		sb.WriteString(style.Render(value))
		sb.WriteString("\n")
	}

	cells := fmt.Sprintf("%d", stats.CellsVisited.Load())
	if m.job.MaxCells > 0 {
		cells += fmt.Sprintf("/%d", m.job.MaxCells)
	}
	row("State:", stats.State().String(), styles.StatValue)
	row("Cells:", cells, styles.StatValue)
	row("Frontier:", fmt.Sprintf("%d", stats.Frontier.Load()), styles.StatValue)
	row("Calls:", fmt.Sprintf("%d", stats.OracleCalls.Load()), styles.StatValue)
	row("Found:", fmt.Sprintf("%d", stats.RecordsFound.Load()), styles.StatValue)
	row("Unique:", fmt.Sprintf("%d", stats.RecordsAccepted.Load()), styles.StatValue)

	errStyle := styles.StatValue
	if stats.OracleErrors.Load() > 0 {
		errStyle = styles.ErrorText
	}
	row("Errors:", fmt.Sprintf("%d", stats.OracleErrors.Load()), errStyle)
	if rl := stats.RateLimits.Load(); rl > 0 {
		row("Rate Lim:", fmt.Sprintf("%d", rl), styles.WarnText)
	}
	row("Elapsed:", elapsed.String(), styles.StatValue)

	return strings.TrimSuffix(sb.String(), "\n")
}

// NavigateToExplorer signals transition to explorer view.
type NavigateToExplorer struct {
	DBPath string
}
