// Package live renders research progress in the terminal with Bubble Tea.
// The model polls a progress.Observer on a timer and never talks to the pipeline directly.
package live

import (
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/deep-research/internal/progress"
)

const (
	defaultBarWidth = 48
	maxBarWidth     = 72
)

// Options configures the live UI model.
type Options struct {
	Query        string
	NoColor      bool
	PollInterval time.Duration
}

// Model is the Bubble Tea model for a single research run.
type Model struct {
	obs       *progress.Observer
	done      <-chan struct{}
	bar       bprogress.Model
	view      progress.View
	query     string
	interval  time.Duration
	started   time.Time
	now       time.Time
	noColor   bool
	finished  bool
	cancelled bool
}

// NewModel constructs a model that polls obs until done is closed.
func NewModel(obs *progress.Observer, done <-chan struct{}, opts Options) Model {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = progress.DefaultPollInterval
	}
	barOpts := []bprogress.Option{bprogress.WithWidth(defaultBarWidth)}
	if opts.NoColor {
		barOpts = append(barOpts, bprogress.WithSolidFill("7"))
	} else {
		barOpts = append(barOpts, bprogress.WithDefaultGradient())
	}
	now := time.Now()
	return Model{
		obs:      obs,
		done:     done,
		bar:      bprogress.New(barOpts...),
		query:    opts.Query,
		interval: interval,
		started:  now,
		now:      now,
		noColor:  opts.NoColor,
	}
}

// Init starts polling and waits for the run to finish.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForDone(m.done), tick(m.interval))
}

// Update handles ticks, completion and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(min(typed.Width-8, maxBarWidth), 10)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.now = time.Time(typed)
		m.view = m.obs.Poll()
		return m, tick(m.interval)
	case doneMsg:
		m.obs.MarkResultReady()
		m.view = m.obs.Poll()
		m.finished = true
		m.now = time.Now()
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current progress.
func (m Model) View() string {
	parts := []string{
		renderHeader(m.query, m.now.Sub(m.started), m.noColor),
		m.bar.ViewAs(float64(m.view.Percent) / 100),
		renderEvents(m.view, m.noColor),
	}
	if s := renderSources(m.view, m.noColor); s != "" {
		parts = append(parts, s)
	}
	if s := renderFooter(m.view, m.finished, m.noColor); s != "" {
		parts = append(parts, s)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

// Progress returns the last polled view.
func (m Model) Progress() progress.View {
	return m.view
}

// Cancelled reports whether the user quit before the run finished.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// tickMsg carries a clock tick for polling.
type tickMsg time.Time

// doneMsg signals that the run produced its final result.
type doneMsg struct{}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if done == nil {
			return nil
		}
		<-done
		return doneMsg{}
	}
}
