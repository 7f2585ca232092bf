package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/deep-research/internal/llm"
	"github.com/jonathan/deep-research/internal/progress"
	"github.com/jonathan/deep-research/internal/prompts"
	"github.com/jonathan/deep-research/internal/research"
	"github.com/jonathan/deep-research/internal/types"
	"go.uber.org/zap"
)

// Precondition messages
const (
	MsgNoQuery   = "No query provided for research"
	MsgNoResults = "No search results to analyze"
)

// ErrEmptyResponse is returned when the model answers with no text
var ErrEmptyResponse = errors.New("empty response from model")

// Options configures a Pipeline
type Options struct {
	MaxResults      int // hits requested from search
	KeepResults     int // hits kept for analysis
	AnalysisSources int // sources quoted in the analysis prompt
	ExcerptChars    int // excerpt length per quoted source
	SourceLimit     int // sources listed in the report prompt
	Tier            llm.ModelTier
	Logger          *zap.Logger
}

// DefaultOptions returns the standard pipeline options
func DefaultOptions() Options {
	return Options{
		MaxResults:      3,
		KeepResults:     2,
		AnalysisSources: 2,
		ExcerptChars:    200,
		SourceLimit:     6,
		Tier:            llm.TierStandard,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	if o.KeepResults <= 0 {
		o.KeepResults = d.KeepResults
	}
	if o.AnalysisSources <= 0 {
		o.AnalysisSources = d.AnalysisSources
	}
	if o.ExcerptChars <= 0 {
		o.ExcerptChars = d.ExcerptChars
	}
	if o.SourceLimit <= 0 {
		o.SourceLimit = d.SourceLimit
	}
	if o.Tier == "" {
		o.Tier = d.Tier
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Pipeline executes the research stages against an inference and a search capability
type Pipeline struct {
	llm    llm.Client
	search research.Searcher
	opts   Options
}

// New creates a Pipeline. Zero option fields take their defaults.
func New(client llm.Client, searcher research.Searcher, opts Options) *Pipeline {
	return &Pipeline{llm: client, search: searcher, opts: opts.withDefaults()}
}

// Run executes all stages in order on the calling goroutine, stopping at the
// first failure, and returns the terminal state. Events go to log only.
func (p *Pipeline) Run(ctx context.Context, query string, log *progress.EventLog) *State {
	st := NewState(query)

	steps := []struct {
		stage        Stage
		precondition func(*State) string
		invoke       func(context.Context, *State) (map[string]any, error)
	}{
		{Stages[0], nil, p.analyzeQuery},
		{Stages[1], requireQuery, p.research},
		{Stages[2], requireResults, p.analyzeContent},
		{Stages[3], nil, p.generateReport},
	}

	for _, step := range steps {
		if !p.runStage(ctx, log, st, step.stage, step.precondition, step.invoke) {
			break
		}
	}
	return st
}

// runStage emits the stage's started event, checks its precondition, brackets
// exactly one capability call and records the outcome. It returns false when
// the run must stop.
func (p *Pipeline) runStage(
	ctx context.Context,
	log *progress.EventLog,
	st *State,
	stage Stage,
	precondition func(*State) string,
	invoke func(context.Context, *State) (map[string]any, error),
) bool {
	logger := p.opts.Logger.With(zap.String("stage", stage.Name))
	var startMeta map[string]any
	if stage.Name == progress.ActionAnalyzeQuery {
		startMeta = map[string]any{progress.MetaQuery: st.Query}
	}
	log.Append(progress.ComponentOrchestrator, stage.Name, progress.StatusStarted, stage.StartMessage, startMeta)
	logger.Debug("stage started", zap.String("status", string(st.Status)))

	if precondition != nil {
		if msg := precondition(st); msg != "" {
			p.failStage(log, st, stage, preconditionError(stage, msg), logger)
			return false
		}
	}

	var invokeMeta map[string]any
	if stage.Capability == progress.ComponentSearch {
		invokeMeta = map[string]any{progress.MetaMaxResults: p.opts.MaxResults}
	}
	log.Append(stage.Capability, stage.Invocation, progress.StatusStarted, stage.InvokeMessage, invokeMeta)

	meta, serr := p.invokeSafely(ctx, st, stage, invoke)
	if serr != nil {
		log.Append(stage.Capability, stage.Invocation, progress.StatusError, serr.Error(), nil)
		p.failStage(log, st, stage, serr, logger)
		return false
	}

	log.Append(stage.Capability, stage.Invocation, progress.StatusCompleted, invokedMessage(stage, meta), meta)
	st.Status = stage.Next
	log.Append(progress.ComponentOrchestrator, stage.Name, progress.StatusCompleted, stage.CompleteMessage, meta)
	logger.Debug("stage completed", zap.String("status", string(st.Status)))
	return true
}

// invokeSafely runs the capability call, converting errors and panics into a StageError
func (p *Pipeline) invokeSafely(
	ctx context.Context,
	st *State,
	stage Stage,
	invoke func(context.Context, *State) (map[string]any, error),
) (meta map[string]any, serr *StageError) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			serr = unexpectedError(stage, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, capabilityError(stage, err)
	}
	meta, err := invoke(ctx, st)
	if err != nil {
		return nil, capabilityError(stage, err)
	}
	return meta, nil
}

func (p *Pipeline) failStage(log *progress.EventLog, st *State, stage Stage, serr *StageError, logger *zap.Logger) {
	st.fail(serr)
	log.Append(progress.ComponentOrchestrator, stage.Name, progress.StatusError, serr.Error(), nil)
	logger.Debug("stage failed", zap.String("kind", string(serr.Kind)), zap.Error(serr))
}

func invokedMessage(stage Stage, meta map[string]any) string {
	if n, ok := meta[progress.MetaResultCount].(int); ok {
		return fmt.Sprintf("Found %d results", n)
	}
	return stage.InvokedMessage
}

func requireQuery(st *State) string {
	if strings.TrimSpace(st.Query) == "" {
		return MsgNoQuery
	}
	return ""
}

func requireResults(st *State) string {
	if len(st.SearchResults) == 0 {
		return MsgNoResults
	}
	return ""
}

// generate invokes the model once and rejects empty answers
func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	text, err := p.llm.GenerateContent(ctx, prompt, p.opts.Tier)
	if err != nil {
		return "", err
	}
	text = llm.NormalizeText(llm.CleanResponse(text))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (p *Pipeline) analyzeQuery(ctx context.Context, st *State) (map[string]any, error) {
	prompt := prompts.Format(prompts.MustGet("research.json", "analyze-query"), map[string]string{
		"Query": st.Query,
	})
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	st.TopicAnalysis = text
	return map[string]any{progress.MetaChars: len(text)}, nil
}

func (p *Pipeline) research(ctx context.Context, st *State) (map[string]any, error) {
	docs, err := p.search.Search(ctx, st.Query, p.opts.MaxResults)
	if err != nil {
		return nil, err
	}
	// The searcher may share its slice; filling sources works on our own copy
	docs = slices.Clone(research.Keep(research.Dedup(docs), p.opts.KeepResults))
	research.FillSource(docs)

	st.SearchResults = docs
	return map[string]any{
		progress.MetaResultCount: len(docs),
		progress.MetaTitles:      types.Titles(docs, 5),
	}, nil
}

func (p *Pipeline) analyzeContent(ctx context.Context, st *State) (map[string]any, error) {
	n := min(len(st.SearchResults), p.opts.AnalysisSources)
	findings := make([]string, 0, n)
	for _, d := range st.SearchResults[:n] {
		findings = append(findings, fmt.Sprintf("Source: %s\nURL: %s\nContent: %s...",
			d.Title, d.URL, prompts.Truncate(d.Content, p.opts.ExcerptChars)))
	}

	prompt := prompts.Format(prompts.MustGet("research.json", "analyze-content"), map[string]string{
		"Query":    st.Query,
		"Findings": strings.Join(findings, "\n\n"),
	})
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	st.Analysis = text
	return map[string]any{progress.MetaChars: len(text)}, nil
}

func (p *Pipeline) generateReport(ctx context.Context, st *State) (map[string]any, error) {
	n := min(len(st.SearchResults), p.opts.SourceLimit)
	lines := make([]string, 0, n)
	for i, d := range st.SearchResults[:n] {
		lines = append(lines, fmt.Sprintf("- %d. %s (%s)", i+1, d.TitleOr("Untitled"), d.URLOr("N/A")))
	}

	prompt := prompts.Format(prompts.MustGet("research.json", "generate-report"), map[string]string{
		"Query":    st.Query,
		"Analysis": st.Analysis,
		"Sources":  strings.Join(lines, "\n"),
	})
	text, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	st.Report = text
	return map[string]any{progress.MetaChars: len(text)}, nil
}
