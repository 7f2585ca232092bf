// Package report builds the sectioned research report: five sections generated
// concurrently under an explicit rate-limit policy, then compiled into one
// markdown document by a pure, deterministic template.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/deep-research/internal/prompts"
	"github.com/jonathan/deep-research/internal/types"
)

// Kind identifies one of the five report sections. Its value is the section's
// presentation order.
type Kind int

// Section kinds in presentation order
const (
	ExecutiveSummary Kind = iota + 1
	KeyFindings
	Methodology
	Implications
	Conclusion
)

// Kinds lists every section kind in order
var Kinds = []Kind{ExecutiveSummary, KeyFindings, Methodology, Implications, Conclusion}

// Input is what every section task reads. It is shared read-only across tasks.
type Input struct {
	Query    string
	Analysis string
	Sources  []types.Document
	// GeneratedAt stamps the report. When zero the generator's Clock is used,
	// so identical inputs only compile to identical bytes with it set.
	GeneratedAt time.Time
}

// Fixed fallback texts
const (
	FallbackKeyFindings  = "- Insufficient data to extract key findings."
	FallbackMethodology  = "Desk research using reputable web sources; qualitative synthesis; limited by public data and recency."
	FallbackImplications = "- Further research recommended; limited evidence available."
	FallbackConclusion   = "This research indicates promising momentum; however, conclusions are tentative given limited public evidence."
)

// Order returns the section's fixed presentation order
func (k Kind) Order() int {
	return int(k)
}

// Title returns the section heading
func (k Kind) Title() string {
	switch k {
	case ExecutiveSummary:
		return "Executive Summary"
	case KeyFindings:
		return "Key Findings"
	case Methodology:
		return "Research Methodology"
	case Implications:
		return "Implications & Recommendations"
	case Conclusion:
		return "Conclusion"
	default:
		return fmt.Sprintf("Section %d", int(k))
	}
}

func (k Kind) String() string {
	return k.Title()
}

// PromptKey returns the key of the section prompt in report.json
func (k Kind) PromptKey() string {
	switch k {
	case ExecutiveSummary:
		return "executive-summary"
	case KeyFindings:
		return "key-findings"
	case Methodology:
		return "methodology"
	case Implications:
		return "implications"
	case Conclusion:
		return "conclusion"
	default:
		return ""
	}
}

// Fallback returns the deterministic text used when generation fails.
// The executive summary falls back to the head of the analysis.
func (k Kind) Fallback(in Input) string {
	switch k {
	case ExecutiveSummary:
		if in.Analysis == "" {
			return ""
		}
		return prompts.Truncate(in.Analysis, 300) + "..."
	case KeyFindings:
		return FallbackKeyFindings
	case Methodology:
		return FallbackMethodology
	case Implications:
		return FallbackImplications
	case Conclusion:
		return FallbackConclusion
	default:
		return ""
	}
}

// Prompt renders the section prompt from the input
func (k Kind) Prompt(in Input) (string, error) {
	template, err := prompts.Get("report.json", k.PromptKey())
	if err != nil {
		return "", err
	}

	data := map[string]string{"Query": in.Query}
	switch k {
	case ExecutiveSummary:
		data["Analysis"] = prompts.Truncate(in.Analysis, 700)
	case KeyFindings:
		data["Analysis"] = prompts.Truncate(in.Analysis, 1800)
		n := min(len(in.Sources), 2)
		lines := make([]string, 0, n)
		for _, s := range in.Sources[:n] {
			lines = append(lines, fmt.Sprintf("- %s: %s...", s.Title, prompts.Truncate(s.Content, 140)))
		}
		data["Sources"] = strings.Join(lines, "\n")
	case Implications:
		data["Analysis"] = prompts.Truncate(in.Analysis, 1200)
	case Conclusion:
		data["Analysis"] = prompts.Truncate(in.Analysis, 400)
	}
	return prompts.Format(template, data), nil
}
