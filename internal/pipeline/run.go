package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/types"
)

// Result is the uniform outcome of one run, success or failure
type Result struct {
	RunID         string           `json:"run_id"`
	Success       bool             `json:"success"`
	Query         string           `json:"query"`
	TopicAnalysis string           `json:"topic_analysis,omitempty"`
	SearchResults []types.Document `json:"search_results"`
	Analysis      string           `json:"analysis,omitempty"`
	Report        string           `json:"report,omitempty"`
	Status        Status           `json:"status"`
	Error         string           `json:"error,omitempty"`
	Progress      []progress.Event `json:"progress"`
}

// FinishedAt is the timestamp of the run's last event, or zero when no
// event was recorded.
func (r Result) FinishedAt() time.Time {
	if n := len(r.Progress); n > 0 {
		return r.Progress[n-1].Timestamp
	}
	return time.Time{}
}

// Execute runs p to completion and never panics: anything escaping the
// pipeline becomes a failed Result carrying the query. A nil log gets a fresh one.
func Execute(ctx context.Context, p *Pipeline, query string, log *progress.EventLog) (res Result) {
	if log == nil {
		log = progress.NewEventLog()
	}
	res = Result{
		RunID:         log.ID().String(),
		Query:         query,
		SearchResults: []types.Document{},
		Status:        StatusError,
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Status = StatusError
			res.Error = fmt.Sprintf("research run failed: %v", r)
		}
		res.Progress = log.Snapshot()
	}()

	if p == nil {
		res.Error = "research run failed: pipeline is not configured"
		return res
	}

	st := p.Run(ctx, query, log)
	res.Success = st.Status == StatusReportGenerated
	res.TopicAnalysis = st.TopicAnalysis
	if st.SearchResults != nil {
		res.SearchResults = st.SearchResults
	}
	res.Analysis = st.Analysis
	res.Report = st.Report
	res.Status = st.Status
	res.Error = st.Error
	return res
}

// Handle is the caller's view of a run executing on a background worker
type Handle struct {
	log    *progress.EventLog
	done   chan struct{}
	result Result
}

// Start runs the pipeline on a single background goroutine and returns
// immediately. The worker always runs to natural completion; ctx reaches the
// capabilities, which surface cancellation as an ordinary stage failure.
func (p *Pipeline) Start(ctx context.Context, query string, log *progress.EventLog) *Handle {
	if log == nil {
		log = progress.NewEventLog()
	}
	h := &Handle{log: log, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.result = Execute(ctx, p, query, log)
	}()
	return h
}

// Log returns the run-scoped event log
func (h *Handle) Log() *progress.EventLog {
	return h.log
}

// Done is closed once the result is available
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run finishes and returns its result
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

// Result returns the result without blocking; ok is false while running
func (h *Handle) Result() (Result, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return Result{}, false
	}
}
