package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/deep-research/internal/prompts"
	"github.com/jonathan/deep-research/internal/types"
)

// Template limits
const (
	LiteratureSources = 5
	DiagramSources    = 3
	ListedSources     = 10
)

// DateLayout formats the generation timestamp
const DateLayout = "January 02, 2006 at 15:04:05"

// FallbackNote is appended to fallback sections when marking is enabled
const FallbackNote = "> _Note: this section could not be generated; default text is shown._"

// Render compiles sections and sources into the report markdown. It performs
// no I/O and reads no clock, so equal inputs always give equal output.
// Sections are rendered by ascending Order; the input slice is not modified.
func Render(query string, sections []types.ReportSection, sources []types.Document, generatedAt time.Time, markFallbacks bool) string {
	ordered := make([]types.ReportSection, len(sections))
	copy(ordered, sections)
	types.SortSections(ordered)

	var b strings.Builder
	fmt.Fprintf(&b, "# 🧠 Research Report: %s\n\n", query)
	fmt.Fprintf(&b, "Generated: %s\n\n---\n\n", generatedAt.Format(DateLayout))

	for _, s := range ordered {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Content)
		if markFallbacks && s.Fallback {
			fmt.Fprintf(&b, "%s\n\n", FallbackNote)
		}
		switch Kind(s.Order) {
		case KeyFindings:
			fmt.Fprintf(&b, "### Findings Overview (Visual)\n\n```mermaid\n%s\n```\n\n", Diagram(sources))
		case Methodology:
			fmt.Fprintf(&b, "## Literature Review\n\n%s\n\n", LiteratureReview(sources))
		}
	}

	b.WriteString("## Sources\n\n")
	for i, src := range sources[:min(len(sources), ListedSources)] {
		fmt.Fprintf(&b, "%d. **%s**\n   URL: %s\n   Source: %s\n\n",
			i+1, src.TitleOr("Untitled"), src.URLOr("N/A"), src.SourceOr("Unknown"))
	}

	fmt.Fprintf(&b, "\n---\n\n*Report generated by Research AI Agent*\n*Total sources analyzed: %d*\n", len(sources))
	return b.String()
}

// LiteratureReview summarizes the first five sources, one bullet each
func LiteratureReview(sources []types.Document) string {
	if len(sources) == 0 {
		return "- N/A"
	}
	lines := make([]string, 0, LiteratureSources)
	for _, src := range sources[:min(len(sources), LiteratureSources)] {
		lines = append(lines, fmt.Sprintf("- **%s**: %s… (URL: %s)",
			src.TitleOr("Untitled"), prompts.Excerpt(src.Content, 200), src.URLOr("N/A")))
	}
	return strings.Join(lines, "\n")
}

// Diagram returns a mermaid graph linking the first three sources to the findings
func Diagram(sources []types.Document) string {
	lines := []string{"graph LR", "  A[Query] --> B[Key Findings]"}
	for i, src := range sources[:min(len(sources), DiagramSources)] {
		lines = append(lines, fmt.Sprintf("  S%d[%s] --> B", i+1, diagramLabel(src.TitleOr("Untitled"))))
	}
	return strings.Join(lines, "\n")
}

var labelReplacer = strings.NewReplacer("[", "(", "]", ")", "\n", " ", "\"", "'")

func diagramLabel(title string) string {
	return labelReplacer.Replace(title)
}
