package live

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/progress"
)

// Run shows live progress for h until the run finishes or the user quits.
// It returns the final view and whether the user quit early.
func Run(ctx context.Context, out io.Writer, h *pipeline.Handle, opts Options) (progress.View, bool, error) {
	model := NewModel(progress.NewObserver(h.Log()), h.Done(), opts)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return model.Progress(), false, fmt.Errorf("live ui: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return model.Progress(), false, nil
	}
	return m.Progress(), m.Cancelled(), nil
}
