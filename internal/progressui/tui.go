package progressui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	corestate "github.com/DrDavidL/my-search-buddy/internal/progress"
)

// TUIRenderer renders live crawl progress with bubbletea: stage line,
// progress bar, throughput sparkline, and a status bar.
type TUIRenderer struct {
	program *tea.Program
}

// NewTUIRenderer builds a TUI renderer, failing if the output isn't a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{}, nil
}

// Run drives the bubbletea program until updates closes or delivers a
// not-running state.
func (r *TUIRenderer) Run(initial corestate.State, updates <-chan corestate.State) error {
	model := newCrawlModel(initial)

	var opts []tea.ProgramOption
	opts = append(opts, tea.WithOutput(os.Stdout))
	program := tea.NewProgram(model, opts...)
	r.program = program

	go func() {
		for st := range updates {
			program.Send(stateMsg(st))
			if !st.IsRunning {
				program.Send(doneMsg{})
				return
			}
		}
		program.Send(doneMsg{})
	}()

	_, err := program.Run()
	return err
}

type stateMsg corestate.State
type doneMsg struct{}
type tickMsg time.Time

type crawlModel struct {
	state       corestate.State
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	spark       *sparkline
	lastIndexed int
	lastSample  time.Time
	quitting    bool
	done        bool
}

func newCrawlModel(initial corestate.State) *crawlModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime))

	p := progress.New(progress.WithSolidFill(colorLime), progress.WithWidth(50), progress.WithoutPercentage())

	return &crawlModel{
		state:       initial,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		spark:       newSparkline(60),
		lastSample:  time.Now(),
	}
}

func (m *crawlModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *crawlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case stateMsg:
		m.state = corestate.State(msg)
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		elapsed := time.Since(m.lastSample)
		if elapsed >= 500*time.Millisecond {
			delta := m.state.FilesIndexed - m.lastIndexed
			if delta > 0 {
				m.spark.add(float64(delta) / elapsed.Seconds())
			}
			m.lastIndexed = m.state.FilesIndexed
			m.lastSample = time.Now()
		}
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *crawlModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.done {
		return m.renderComplete()
	}

	var lines []string
	lines = append(lines, m.renderPhase())
	lines = append(lines, m.renderProgress())
	lines = append(lines, m.renderSparkline())
	lines = append(lines, m.styles.Dim.Render("q to quit"))
	return strings.Join(lines, "\n")
}

func (m *crawlModel) renderPhase() string {
	return m.styles.Header.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.state.Phase))
}

func (m *crawlModel) renderProgress() string {
	if m.state.FilesEnumerated == 0 {
		return m.styles.Dim.Render(fmt.Sprintf("%d indexed - %s", m.state.FilesIndexed, m.state.StatusText))
	}
	percent := float64(m.state.FilesIndexed) / float64(m.state.FilesEnumerated)
	if percent > 1.0 {
		percent = 1.0
	}
	bar := m.progressBar.ViewAs(percent)
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", percent*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d files", m.state.FilesIndexed, m.state.FilesEnumerated))
	return fmt.Sprintf("%s  %s\n%s", bar, pct, count)
}

func (m *crawlModel) renderSparkline() string {
	label := m.styles.Dim.Render("throughput ─")
	return m.styles.Sparkline.Render(m.spark.render()) + " " + label
}

func (m *crawlModel) renderComplete() string {
	var lines []string
	lines = append(lines, m.styles.Success.Render("Crawl complete"))
	lines = append(lines, fmt.Sprintf("%s %d", m.styles.Label.Render("Files indexed:"), m.state.FilesIndexed))
	if !m.state.LastCompletedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%s %s", m.styles.Label.Render("Finished:"), formatDuration(time.Since(m.state.LastCompletedAt))+" ago"))
	}
	return strings.Join(lines, "\n") + "\n"
}

var _ Renderer = (*TUIRenderer)(nil)
