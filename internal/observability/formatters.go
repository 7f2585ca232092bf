// Package observability provides formatted terminal output and logger setup for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the plain (non-TUI) CLI mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(clip(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "..."
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes
func pad(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// PrintStatus writes one progress line for the current view.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStatus(v progress.View) {
	latest := "waiting for first event"
	if n := len(v.Latest); n > 0 {
		e := v.Latest[n-1]
		latest = fmt.Sprintf("%s %s: %s", e.Key(), e.Status, e.Message)
	}
	fmt.Fprintf(p.out, "[%3d%%] %s\n", v.Percent, latest)
}

// PrintTimeline outputs the latest event per component and action.
func (p *Printer) PrintTimeline(v progress.View) {
	if len(v.Latest) == 0 {
		return
	}

	var sb strings.Builder
	for _, e := range v.Latest {
		sb.WriteString(fmt.Sprintf("%s %-24s %s\n", statusIcon(e.Status), e.Key(), e.Message))
	}
	sb.WriteString(fmt.Sprintf("\nProgress: %d%%", v.Percent))

	p.printBox("RESEARCH PROGRESS", sb.String())
}

func statusIcon(s progress.Status) string {
	switch s {
	case progress.StatusCompleted:
		return "✓"
	case progress.StatusError:
		return "✗"
	default:
		return "…"
	}
}

// PrintSources outputs the fetched sources.
func (p *Printer) PrintSources(docs []types.Document) {
	if len(docs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sources fetched: %d\n\n", len(docs)))

	count := min(len(docs), maxItemsToShow)
	for i := 0; i < count; i++ {
		d := docs[i]
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, d.TitleOr("Untitled")))
		sb.WriteString(fmt.Sprintf("   %s\n", d.URLOr("N/A")))
	}
	if len(docs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more sources\n", len(docs)-maxItemsToShow))
	}

	p.printBox("SOURCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs the outcome of a run.
func (p *Printer) PrintResult(res pipeline.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query:    %s\n", res.Query))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", res.Status))
	sb.WriteString(fmt.Sprintf("Sources:  %d\n", len(res.SearchResults)))
	sb.WriteString(fmt.Sprintf("Events:   %d", len(res.Progress)))
	if res.Error != "" {
		sb.WriteString(fmt.Sprintf("\n\nError: %s", res.Error))
	}

	title := "✅ RESEARCH COMPLETED"
	if !res.Success {
		title = "❌ RESEARCH FAILED"
	}
	p.printBox(title, sb.String())
}

// PrintReport outputs the compiled report's section summary.
func (p *Printer) PrintReport(rep *report.Report, path string) {
	if rep == nil {
		return
	}

	var sb strings.Builder
	for _, s := range rep.Sections {
		mark := "✓"
		if s.Fallback {
			mark = "⚠"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s (%d chars)\n", mark, s.Order, s.Title, len(s.Content)))
	}
	if len(rep.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\nFallback text used for: %s\n", strings.Join(rep.Failed, ", ")))
	}
	if path != "" {
		sb.WriteString(fmt.Sprintf("\nSaved to %s\n", path))
	}

	p.printBox("REPORT SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}
