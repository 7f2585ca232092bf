package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatus(progress.View{})
	p.PrintStatus(progress.View{
		Percent: 32,
		Latest: []progress.Event{
			{Component: progress.ComponentOrchestrator, Action: "research", Status: progress.StatusStarted, Message: "Starting web research"},
			{Component: progress.ComponentSearch, Action: "search", Status: progress.StatusStarted, Message: "Searching the web"},
		},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[  0%] waiting for first event", lines[0])
	assert.Equal(t, "[ 32%] search/search started: Searching the web", lines[1])
}

func TestPrintTimeline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTimeline(progress.View{
		Percent: 50,
		Latest: []progress.Event{
			{Component: progress.ComponentOrchestrator, Action: "analyze_query", Status: progress.StatusCompleted, Message: "Query analysis completed"},
			{Component: progress.ComponentSearch, Action: "search", Status: progress.StatusError, Message: "Web research failed: quota"},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "RESEARCH PROGRESS")
	assert.Contains(t, output, "✓ orchestrator/analyze_query")
	assert.Contains(t, output, "✗ search/search")
	assert.Contains(t, output, "Progress: 50%")
}

func TestPrintTimeline_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTimeline(progress.View{})
	assert.Empty(t, buf.String())
}

func TestPrintSources(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var docs []types.Document
	for i := 1; i <= 7; i++ {
		docs = append(docs, types.Document{Title: fmt.Sprintf("Doc %d", i), URL: fmt.Sprintf("https://example.com/%d", i)})
	}
	docs = append(docs, types.Document{})

	p.PrintSources(docs)
	output := buf.String()

	assert.Contains(t, output, "Sources fetched: 8")
	assert.Contains(t, output, "5. Doc 5")
	assert.NotContains(t, output, "6. Doc 6")
	assert.Contains(t, output, "... and 3 more sources")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(pipeline.Result{Success: true, Query: "AI safety", Status: pipeline.StatusReportGenerated})
	assert.Contains(t, buf.String(), "RESEARCH COMPLETED")
	assert.Contains(t, buf.String(), "report_generated")

	buf.Reset()
	p.PrintResult(pipeline.Result{Query: "X", Status: pipeline.StatusError, Error: pipeline.MsgNoResults})
	assert.Contains(t, buf.String(), "RESEARCH FAILED")
	assert.Contains(t, buf.String(), "No search results to analyze")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintReport(&report.Report{
		Sections: []types.ReportSection{
			{Title: "Executive Summary", Order: 1, Content: "abc"},
			{Title: "Research Methodology", Order: 3, Content: report.FallbackMethodology, Fallback: true},
		},
		Failed: []string{"Research Methodology"},
	}, "out/report.md")
	output := buf.String()

	assert.Contains(t, output, "✓ 1. Executive Summary (3 chars)")
	assert.Contains(t, output, "⚠ 3. Research Methodology")
	assert.Contains(t, output, "Fallback text used for: Research Methodology")
	assert.Contains(t, output, "Saved to out/report.md")

	buf.Reset()
	p.PrintReport(nil, "")
	assert.Empty(t, buf.String())
}

func TestPrintBox_ClipsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}
