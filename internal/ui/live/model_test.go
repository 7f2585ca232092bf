package live

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deep-research/internal/progress"
)

func newTestModel(l *progress.EventLog, done chan struct{}) Model {
	return NewModel(progress.NewObserver(l), done, Options{Query: "quantum batteries", NoColor: true, PollInterval: time.Millisecond})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_TickPollsObserver(t *testing.T) {
	l := progress.NewEventLog()
	m := newTestModel(l, make(chan struct{}))

	assert.Contains(t, m.View(), "waiting for first event")

	l.Append(progress.ComponentOrchestrator, progress.ActionAnalyzeQuery, progress.StatusStarted, "Analyzing research query", nil)
	m, cmd := update(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd, "keeps ticking while running")
	assert.Equal(t, 8, m.Progress().Percent)

	view := m.View()
	assert.Contains(t, view, "quantum batteries")
	assert.Contains(t, view, "orchestrator/analyze_query")
	assert.Contains(t, view, "Analyzing research query")
	assert.Contains(t, view, "Press q to stop watching.")
}

func TestModel_ShowsSources(t *testing.T) {
	l := progress.NewEventLog()
	l.Append(progress.ComponentSearch, progress.ActionSearch, progress.StatusCompleted, "Found 2 results", map[string]any{
		progress.MetaResultCount: 2,
		progress.MetaTitles:      []string{"Solid-state cells", "Battery review"},
	})
	m := newTestModel(l, make(chan struct{}))

	m, _ = update(t, m, tickMsg(time.Now()))

	view := m.View()
	assert.Contains(t, view, "Sources: 2")
	assert.Contains(t, view, "• Solid-state cells")
	assert.Contains(t, view, "• Battery review")
}

func TestModel_DoneReachesFullAndQuits(t *testing.T) {
	l := progress.NewEventLog()
	for _, a := range []string{progress.ActionAnalyzeQuery, progress.ActionResearch, progress.ActionAnalyzeContent, progress.ActionGenerateReport} {
		l.Append(progress.ComponentOrchestrator, a, progress.StatusStarted, a, nil)
		l.Append(progress.ComponentOrchestrator, a, progress.StatusCompleted, a, nil)
	}
	m := newTestModel(l, make(chan struct{}))

	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, progress.DisplayCap, m.Progress().Percent)

	m, cmd := update(t, m, doneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 100, m.Progress().Percent)
	assert.Contains(t, m.View(), "Done.")

	// Late ticks are ignored once finished
	_, cmd = update(t, m, tickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestModel_ShowsError(t *testing.T) {
	l := progress.NewEventLog()
	l.Append(progress.ComponentOrchestrator, progress.ActionResearch, progress.StatusError, "No search results found", nil)
	m := newTestModel(l, make(chan struct{}))

	m, _ = update(t, m, tickMsg(time.Now()))

	assert.Contains(t, m.View(), "Error: No search results found")
	assert.True(t, m.Progress().Failed)
}

func TestModel_QuitKey(t *testing.T) {
	m := newTestModel(progress.NewEventLog(), make(chan struct{}))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.Cancelled())

	m2 := newTestModel(progress.NewEventLog(), make(chan struct{}))
	m2, cmd = update(t, m2, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.False(t, m2.Cancelled())
}

func TestWaitForDone(t *testing.T) {
	done := make(chan struct{})
	close(done)

	assert.Equal(t, doneMsg{}, waitForDone(done)())
	assert.Nil(t, waitForDone(nil)())
}

func TestModel_WindowResize(t *testing.T) {
	m := newTestModel(progress.NewEventLog(), make(chan struct{}))

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 12, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}
