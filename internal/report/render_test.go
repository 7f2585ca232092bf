package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/deep-research/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSections() []types.ReportSection {
	sections := make([]types.ReportSection, 0, len(Kinds))
	for _, k := range Kinds {
		sections = append(sections, types.ReportSection{Title: k.Title(), Content: "body of " + k.Title(), Order: k.Order()})
	}
	return sections
}

func TestRender_Layout(t *testing.T) {
	sources := testInput().Sources
	md := Render("AI safety", sampleSections(), sources, fixedTime, false)

	assert.True(t, strings.HasPrefix(md, "# 🧠 Research Report: AI safety\n\nGenerated: March 04, 2025 at 09:30:15\n\n---\n\n## Executive Summary\n\nbody of Executive Summary\n\n"))
	assert.Contains(t, md, "## Key Findings\n\nbody of Key Findings\n\n### Findings Overview (Visual)\n\n```mermaid\ngraph LR\n  A[Query] --> B[Key Findings]\n  S1[AI Safety Basics] --> B\n  S2[Alignment Survey] --> B\n```\n\n## Research Methodology")
	assert.Contains(t, md, "## Research Methodology\n\nbody of Research Methodology\n\n## Literature Review\n\n- **AI Safety Basics**: Basics of safety.… (URL: https://example.com/basics)\n- **Alignment Survey**: Survey of alignment.… (URL: https://arxiv.org/abs/1)\n\n## Implications & Recommendations")
	assert.Contains(t, md, "## Sources\n\n1. **AI Safety Basics**\n   URL: https://example.com/basics\n   Source: example.com\n\n2. **Alignment Survey**\n   URL: https://arxiv.org/abs/1\n   Source: Unknown\n\n")
	assert.True(t, strings.HasSuffix(md, "\n---\n\n*Report generated by Research AI Agent*\n*Total sources analyzed: 2*\n"))
}

func TestRender_SortsWithoutMutatingInput(t *testing.T) {
	sections := sampleSections()
	reversed := make([]types.ReportSection, len(sections))
	for i := range sections {
		reversed[len(sections)-1-i] = sections[i]
	}

	a := Render("q", sections, nil, fixedTime, false)
	b := Render("q", reversed, nil, fixedTime, false)

	assert.Equal(t, a, b)
	assert.Equal(t, Conclusion.Order(), reversed[0].Order)
}

func TestRender_NoSources(t *testing.T) {
	md := Render("q", sampleSections(), nil, fixedTime, false)

	assert.Contains(t, md, "## Literature Review\n\n- N/A\n\n")
	assert.Contains(t, md, "```mermaid\ngraph LR\n  A[Query] --> B[Key Findings]\n```")
	assert.Contains(t, md, "*Total sources analyzed: 0*")
}

func TestRender_SourceLimits(t *testing.T) {
	var sources []types.Document
	for i := 1; i <= 12; i++ {
		sources = append(sources, types.Document{Title: fmt.Sprintf("Doc %d", i), URL: fmt.Sprintf("https://example.com/%d", i)})
	}

	md := Render("q", sampleSections(), sources, fixedTime, false)

	assert.Contains(t, md, "10. **Doc 10**")
	assert.NotContains(t, md, "11. **Doc 11**")
	assert.Contains(t, md, "*Total sources analyzed: 12*")

	review := LiteratureReview(sources)
	assert.Len(t, strings.Split(review, "\n"), LiteratureSources)

	diagram := Diagram(sources)
	assert.Contains(t, diagram, "S3[Doc 3] --> B")
	assert.NotContains(t, diagram, "S4")
}

func TestLiteratureReview_ExcerptAndDefaults(t *testing.T) {
	long := strings.Repeat("x", 150) + "\n" + strings.Repeat("y", 100)
	review := LiteratureReview([]types.Document{{Content: long}})

	require.True(t, strings.HasPrefix(review, "- **Untitled**: "))
	assert.Contains(t, review, strings.Repeat("x", 150)+" "+strings.Repeat("y", 49)+"…")
	assert.NotContains(t, review, "\n")
	assert.True(t, strings.HasSuffix(review, "(URL: N/A)"))
}

func TestDiagram_SanitizesLabels(t *testing.T) {
	diagram := Diagram([]types.Document{{Title: "Survey [2024] \"draft\""}})
	assert.Contains(t, diagram, "S1[Survey (2024) 'draft'] --> B")
}
