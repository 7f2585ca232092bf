package pipeline

import "github.com/jonathan/deep-research/internal/progress"

// Stage describes one pipeline step: the capability it brackets, the status it
// produces and the messages it logs.
type Stage struct {
	Name          string
	Capability    progress.Component
	Invocation    string // capability action
	Next          Status
	FailurePrefix string

	StartMessage    string
	InvokeMessage   string
	InvokedMessage  string
	CompleteMessage string
}

// Stages lists the pipeline steps in execution order
var Stages = []Stage{
	{
		Name:            progress.ActionAnalyzeQuery,
		Capability:      progress.ComponentInference,
		Invocation:      progress.ActionInvoke,
		Next:            StatusQueryAnalyzed,
		FailurePrefix:   "Query analysis failed",
		StartMessage:    "Analyzing query",
		InvokeMessage:   "Generating topic analysis",
		InvokedMessage:  "Topic analysis generated",
		CompleteMessage: "Query analysis completed",
	},
	{
		Name:            progress.ActionResearch,
		Capability:      progress.ComponentSearch,
		Invocation:      progress.ActionSearch,
		Next:            StatusResearchCompleted,
		FailurePrefix:   "Web research failed",
		StartMessage:    "Starting web research",
		InvokeMessage:   "Searching the web",
		InvokedMessage:  "Search finished",
		CompleteMessage: "Web research completed",
	},
	{
		Name:            progress.ActionAnalyzeContent,
		Capability:      progress.ComponentInference,
		Invocation:      progress.ActionInvoke,
		Next:            StatusAnalysisCompleted,
		FailurePrefix:   "Content analysis failed",
		StartMessage:    "Analyzing synthesized content",
		InvokeMessage:   "Synthesizing content analysis",
		InvokedMessage:  "Analysis synthesized",
		CompleteMessage: "Content analysis completed",
	},
	{
		Name:            progress.ActionGenerateReport,
		Capability:      progress.ComponentInference,
		Invocation:      progress.ActionInvoke,
		Next:            StatusReportGenerated,
		FailurePrefix:   "Report generation failed",
		StartMessage:    "Composing final report",
		InvokeMessage:   "Generating final report",
		InvokedMessage:  "Report generated",
		CompleteMessage: "Report generation completed",
	},
}

// StageNamed returns the stage definition for name
func StageNamed(name string) (Stage, bool) {
	for _, s := range Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}
