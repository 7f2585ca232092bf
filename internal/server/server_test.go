package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/deep-research/internal/llm"
	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/research"
	"github.com/jonathan/deep-research/internal/server/ratelimit"
	"github.com/jonathan/deep-research/internal/types"
)

var testDocs = []types.Document{
	{Title: "Solid-state batteries", URL: "https://example.com/solid", Content: "Solid electrolytes improve safety.", Source: "example.com"},
	{Title: "Sodium-ion outlook", URL: "https://example.org/sodium", Content: "Sodium-ion cells are cheaper.", Source: "example.org"},
}

func newTestServer(t *testing.T, client llm.Client, docs []types.Document, rl *ratelimit.Config) *Server {
	t.Helper()
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	p := pipeline.New(client, research.StaticSearcher{Docs: docs}, pipeline.Options{})
	g := report.NewGenerator(client, report.Options{Policy: report.Policy{MaxConcurrent: 5}})
	s := New(Config{PollInterval: 5 * time.Millisecond, RateLimit: rl}, p, g)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func startRun(t *testing.T, s *Server, query string) StartResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/research", `{"query":"`+query+`"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp StartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func waitForRun(t *testing.T, s *Server) pipeline.Result {
	t.Helper()
	cur, err := s.currentRun()
	require.NoError(t, err)

	select {
	case <-cur.handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	return cur.handle.Wait()
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndpoints_NoRunYet(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)

	for _, path := range []string{"/research/progress", "/research/result", "/research/report", "/research/stream"} {
		w := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "no research run has been started", path)
	}
}

func TestStart_Validation(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{`},
		{name: "missing query", body: `{}`},
		{name: "blank query", body: `{"query":"   "}`},
		{name: "too long", body: `{"query":"` + strings.Repeat("q", 2001) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/research", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation error")
		})
	}

	_, err := s.currentRun()
	assert.Error(t, err, "rejected requests never start a run")
}

func TestResearchFlow(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)

	started := startRun(t, s, "battery chemistry")
	assert.NotEmpty(t, started.RunID)
	assert.Equal(t, "battery chemistry", started.Query)

	res := waitForRun(t, s)
	require.True(t, res.Success, res.Error)

	// Result
	w := do(t, s, http.MethodGet, "/research/result", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got pipeline.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, started.RunID, got.RunID)
	assert.Equal(t, pipeline.StatusReportGenerated, got.Status)
	assert.Len(t, got.Progress, 16)

	// Progress
	w = do(t, s, http.MethodGet, "/research/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var prog ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
	assert.Equal(t, 100, prog.Percent)
	assert.True(t, prog.Done)
	assert.False(t, prog.Failed)
	assert.Equal(t, 2, prog.SourceCount)
	assert.Equal(t, []string{"Solid-state batteries", "Sodium-ion outlook"}, prog.Sources)
	assert.Len(t, prog.Events, 16)

	// Markdown report
	w = do(t, s, http.MethodGet, "/research/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "research_report_battery_chemistry.md")
	md := w.Body.String()
	assert.True(t, strings.HasPrefix(md, "# 🧠 Research Report: battery chemistry"))
	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "## Conclusion")
	assert.Contains(t, md, "https://example.org/sodium")

	// The report is compiled once and reused
	again := do(t, s, http.MethodGet, "/research/report", "")
	assert.Equal(t, md, again.Body.String())

	// HTML export
	w = do(t, s, http.MethodGet, "/research/report?format=html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, w.Body.String(), `<pre class="mermaid">`)
}

func TestStart_ConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	blocking := llm.FuncClient(func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return llm.Echo(ctx, prompt, tier)
	})
	s := newTestServer(t, blocking, testDocs, nil)

	first := startRun(t, s, "first")

	w := do(t, s, http.MethodPost, "/research", `{"query":"second"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), first.RunID)

	w = do(t, s, http.MethodGet, "/research/result", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	w = do(t, s, http.MethodGet, "/research/report", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	close(release)
	waitForRun(t, s)

	second := startRun(t, s, "second")
	assert.NotEqual(t, first.RunID, second.RunID)
	waitForRun(t, s)

	w = do(t, s, http.MethodGet, "/research/result", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"query":"second"`)
}

func TestReport_FailedRun(t *testing.T) {
	s := newTestServer(t, llm.Echo, nil, nil)

	startRun(t, s, "nothing to find")
	res := waitForRun(t, s)
	require.False(t, res.Success)
	assert.Equal(t, pipeline.MsgNoResults, res.Error)

	w := do(t, s, http.MethodGet, "/research/report", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), pipeline.MsgNoResults)

	w = do(t, s, http.MethodGet, "/research/progress", "")
	var prog ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
	assert.True(t, prog.Failed)
	assert.Equal(t, pipeline.MsgNoResults, prog.Error)
}

func TestProgress_ReportsOnlyLatestRun(t *testing.T) {
	var calls atomic.Int32
	flaky := llm.FuncClient(func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("model unavailable")
		}
		return llm.Echo(ctx, prompt, tier)
	})
	s := newTestServer(t, flaky, testDocs, nil)

	startRun(t, s, "first")
	require.False(t, waitForRun(t, s).Success)

	second := startRun(t, s, "second")
	require.True(t, waitForRun(t, s).Success)

	w := do(t, s, http.MethodGet, "/research/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var prog ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prog))
	assert.Equal(t, second.RunID, prog.RunID)
	assert.False(t, prog.Failed)
	assert.Empty(t, prog.Error)
	assert.Equal(t, 100, prog.Percent)
	assert.Len(t, prog.Events, 16)
}

func TestStream(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)
	startRun(t, s, "streaming")

	// Serves synchronously until the run finishes
	w := do(t, s, http.MethodGet, "/research/stream", "")

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: progress\n")
	assert.Contains(t, body, `"percent":100`)
	assert.Contains(t, body, "event: result\n")
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"status":"report_generated"`)
	assert.NotContains(t, body, "event: error\n")

	// Streamed once in the progress updates and once inside the result's event list
	assert.Equal(t, 2, strings.Count(body, `"action":"analyze_query","status":"started"`))
	assert.Less(t, strings.Index(body, "event: result"), strings.Index(body, "event: complete"))
}

func TestStream_ClientGone(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocking := llm.FuncClient(func(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
		select {
		case <-release:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	s := newTestServer(t, blocking, testDocs, nil)
	startRun(t, s, "abandoned")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/research/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "event: progress\n")
	assert.NotContains(t, body, "event: complete\n")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, &ratelimit.Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: ratelimit.DefaultEndpointConfigs(),
	})

	// Burst of two on POST /research; invalid bodies still count
	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodPost, "/research", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(t, s, http.MethodPost, "/research", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Health is unaffected
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, llm.Echo, testDocs, nil)

	w := do(t, s, http.MethodOptions, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	assert.Equal(t, "10.1.2.3", clientID(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", clientID(req))
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	p := pipeline.New(llm.Echo, research.StaticSearcher{Docs: testDocs}, pipeline.Options{})
	s := New(Config{Addr: "127.0.0.1:0", RateLimit: &ratelimit.Config{Enabled: false}}, p, report.NewGenerator(llm.Echo, report.Options{}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
