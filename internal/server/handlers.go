package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/rendering"
	"github.com/jonathan/deep-research/internal/report"
)

// StartRequest is the body of POST /research
type StartRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// StartResponse is returned when a run is accepted
type StartResponse struct {
	RunID  string `json:"run_id"`
	Query  string `json:"query"`
	Status string `json:"status"`
}

// ProgressResponse is the observer's view of the current run
type ProgressResponse struct {
	RunID       string           `json:"run_id"`
	Percent     int              `json:"percent"`
	Active      string           `json:"active,omitempty"`
	Sources     []string         `json:"sources,omitempty"`
	SourceCount int              `json:"source_count"`
	Failed      bool             `json:"failed"`
	Error       string           `json:"error,omitempty"`
	Done        bool             `json:"done"`
	Events      []progress.Event `json:"events"`
}

// run is the single active (or most recent) research run
type run struct {
	id      string
	query   string
	started time.Time
	handle  *pipeline.Handle

	reportOnce sync.Once
	report     *report.Report
}

// compiledReport builds the sectioned report once per run
func (r *run) compiledReport(ctx context.Context, g *report.Generator, res pipeline.Result) *report.Report {
	r.reportOnce.Do(func() {
		r.report = g.Build(ctx, report.Input{
			Query:       res.Query,
			Analysis:    res.Analysis,
			Sources:     res.SearchResults,
			GeneratedAt: res.FinishedAt(),
		})
	})
	return r.report
}

var validate = validator.New()

func decodeStart(r *http.Request) (StartRequest, error) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	req.Query = strings.TrimSpace(req.Query)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return req, &ErrValidation{Field: "query", Message: "failed '" + verrs[0].Tag() + "' check"}
		}
		return req, &ErrValidation{Field: "query", Message: err.Error()}
	}
	return req, nil
}

// handleStart starts a run unless one is already active
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStart(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.mu.Lock()
	if s.current != nil {
		if _, done := s.current.handle.Result(); !done {
			id := s.current.id
			s.mu.Unlock()
			s.errorResponse(w, &ErrRunInProgress{RunID: id})
			return
		}
	}
	log := progress.NewEventLog()
	cur := &run{
		id:      log.ID().String(),
		query:   req.Query,
		started: time.Now(),
		handle:  s.pipeline.Start(s.baseCtx, req.Query, log),
	}
	s.current = cur
	s.tracker.Swap(log)
	s.mu.Unlock()

	s.logger.Info("research run started", zap.String("run_id", cur.id), zap.String("query", cur.query))
	s.jsonResponse(w, http.StatusAccepted, StartResponse{RunID: cur.id, Query: cur.query, Status: "started"})
}

func (s *Server) currentRun() (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, &ErrNoRun{}
	}
	return s.current, nil
}

// progressSnapshot captures the current run, whether it has finished and its
// events in one critical section. Runs are swapped under the same lock, so the
// events always belong to the returned run.
func (s *Server) progressSnapshot() (*run, bool, progress.Frozen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false, progress.Frozen{}, &ErrNoRun{}
	}
	// done is read first so a finished run's snapshot is always complete
	_, done := s.current.handle.Result()
	id, events := s.tracker.RunSnapshot()
	return s.current, done, progress.Frozen{RunID: id, Events: events}, nil
}

// handleProgress returns a snapshot of the current run's events and derived progress
func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	cur, done, snap, err := s.progressSnapshot()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	// The observer reads events only, never the run itself
	obs := progress.NewObserver(snap)
	if done {
		obs.MarkResultReady()
	}
	v := obs.Poll()

	events := snap.Events
	if events == nil {
		events = []progress.Event{}
	}
	s.jsonResponse(w, http.StatusOK, ProgressResponse{
		RunID:       cur.id,
		Percent:     v.Percent,
		Active:      v.Active,
		Sources:     v.Sources,
		SourceCount: v.SourceCount,
		Failed:      v.Failed,
		Error:       v.Error,
		Done:        v.Done,
		Events:      events,
	})
}

// handleResult returns the finished result, or 202 while the run is in flight
func (s *Server) handleResult(w http.ResponseWriter, _ *http.Request) {
	cur, err := s.currentRun()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	res, done := cur.handle.Result()
	if !done {
		s.jsonResponse(w, http.StatusAccepted, StartResponse{RunID: cur.id, Query: cur.query, Status: "running"})
		return
	}
	if err := progress.CheckLifecycle(res.Progress); err != nil {
		s.logger.Warn("event log breaks lifecycle ordering", zap.String("run_id", cur.id), zap.Error(err))
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleReport compiles the sectioned report for a successful run.
// ?format=html returns a standalone HTML page instead of markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	cur, err := s.currentRun()
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	res, done := cur.handle.Result()
	if !done {
		s.jsonResponse(w, http.StatusAccepted, StartResponse{RunID: cur.id, Query: cur.query, Status: "running"})
		return
	}
	if !res.Success {
		s.errorResponse(w, &ErrRunFailed{RunID: cur.id, Message: res.Error})
		return
	}

	rep := cur.compiledReport(s.baseCtx, s.reports, res)

	if r.URL.Query().Get("format") == "html" {
		page, err := rendering.HTML("Research Report: "+res.Query, rep.Markdown)
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendering.FileName(res.Query)))
	if len(rep.Failed) > 0 {
		w.Header().Set("X-Report-Fallback-Sections", strings.Join(rep.Failed, ", "))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rep.Markdown))
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
