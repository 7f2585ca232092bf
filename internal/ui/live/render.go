package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/deep-research/internal/progress"
)

const maxSourcesShown = 5

var (
	colorTitle   = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("242")
	colorOK      = lipgloss.Color("42")
	colorFailed  = lipgloss.Color("196")
	colorRunning = lipgloss.Color("214")
)

func renderHeader(query string, elapsed time.Duration, noColor bool) string {
	line := "🧠 Researching"
	if query != "" {
		line += ": " + query
	}
	line += " | Elapsed: " + elapsed.Round(100*time.Millisecond).String()
	if noColor {
		return line
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorTitle).Render(line)
}

func renderEvents(v progress.View, noColor bool) string {
	if len(v.Latest) == 0 {
		return stylize("  waiting for first event", noColor, colorMuted)
	}
	lines := make([]string, 0, len(v.Latest))
	for _, e := range v.Latest {
		icon, color := statusMark(e.Status)
		line := fmt.Sprintf("%s %-24s %s", icon, e.Key(), e.Message)
		lines = append(lines, stylize(line, noColor, color))
	}
	return strings.Join(lines, "\n")
}

func renderSources(v progress.View, noColor bool) string {
	if v.SourceCount == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sources: %d", v.SourceCount))
	for i, title := range v.Sources {
		if i == maxSourcesShown {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more", len(v.Sources)-maxSourcesShown))
			break
		}
		sb.WriteString("\n  • " + title)
	}
	return stylize(sb.String(), noColor, colorMuted)
}

func renderFooter(v progress.View, finished, noColor bool) string {
	switch {
	case v.Failed:
		return stylize("Error: "+v.Error, noColor, colorFailed)
	case finished:
		return stylize("Done.", noColor, colorOK)
	default:
		return stylize("Press q to stop watching.", noColor, colorMuted)
	}
}

func statusMark(s progress.Status) (string, lipgloss.Color) {
	switch s {
	case progress.StatusCompleted:
		return "✓", colorOK
	case progress.StatusError:
		return "✗", colorFailed
	default:
		return "…", colorRunning
	}
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
