// Package pipeline runs the four-stage research workflow: query analysis, web
// research, content analysis and report drafting. Stages run strictly in
// sequence on one worker and record their lifecycle in a run-scoped EventLog.
package pipeline

import "github.com/jonathan/deep-research/internal/types"

// Status is the position of a run in the state machine
type Status string

// Run statuses. StatusReportGenerated is the only success terminal and
// StatusError the only failure terminal.
const (
	StatusInitialized       Status = "initialized"
	StatusQueryAnalyzed     Status = "query_analyzed"
	StatusResearchCompleted Status = "research_completed"
	StatusAnalysisCompleted Status = "analysis_completed"
	StatusReportGenerated   Status = "report_generated"
	StatusError             Status = "error"
)

// Terminal reports whether no further stage can run from s
func (s Status) Terminal() bool {
	return s == StatusReportGenerated || s == StatusError
}

// State is the mutable record of one run. It is owned by the worker executing
// the run; observers must not read it while the run is in flight.
type State struct {
	Query         string           `json:"query"`
	TopicAnalysis string           `json:"topic_analysis"`
	SearchResults []types.Document `json:"search_results"`
	Analysis      string           `json:"analysis"`
	Report        string           `json:"report"`
	Status        Status           `json:"status"`
	Error         string           `json:"error,omitempty"`
}

// NewState returns the initial state for query
func NewState(query string) *State {
	return &State{
		Query:         query,
		SearchResults: []types.Document{},
		Status:        StatusInitialized,
	}
}

// Failed reports whether the run ended in the error state
func (s *State) Failed() bool {
	return s.Status == StatusError
}

func (s *State) fail(err *StageError) {
	s.Status = StatusError
	s.Error = err.Error()
}
