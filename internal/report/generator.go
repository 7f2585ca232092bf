package report

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/deep-research/internal/llm"
	"github.com/jonathan/deep-research/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures a Generator
type Options struct {
	Policy Policy
	Tier   llm.ModelTier
	// MarkFallbacks adds a visible note under sections that show fallback text.
	// Fallbacks are always listed in Report.Failed regardless.
	MarkFallbacks bool
	// Clock stamps reports whose Input has no GeneratedAt
	Clock  func() time.Time
	Logger *zap.Logger
}

// DefaultOptions returns the default generator options
func DefaultOptions() Options {
	return Options{
		Policy: DefaultPolicy(),
		Tier:   llm.TierLite,
		Clock:  time.Now,
	}
}

// Report is a compiled report together with the sections it was built from
type Report struct {
	Query       string                `json:"query"`
	Sections    []types.ReportSection `json:"sections"`
	Failed      []string              `json:"failed,omitempty"` // titles of sections showing fallback text
	Sources     []types.Document      `json:"sources"`
	GeneratedAt time.Time             `json:"generated_at"`
	Markdown    string                `json:"markdown"`
}

// Generator produces the five report sections with bounded concurrency
type Generator struct {
	llm  llm.Client
	opts Options
}

// NewGenerator creates a Generator. A zero Policy is replaced by DefaultPolicy.
func NewGenerator(client llm.Client, opts Options) *Generator {
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierLite
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{llm: client, opts: opts}
}

var errEmptySection = errors.New("empty section text")

// Sections generates every section and returns them sorted by order.
// It never fails: a section whose generation fails carries its fallback text.
func (g *Generator) Sections(ctx context.Context, in Input) []types.ReportSection {
	results := make([]types.ReportSection, len(Kinds))
	th := g.opts.Policy.newThrottle()

	var eg errgroup.Group
	eg.SetLimit(g.opts.Policy.workers())
	for i, kind := range Kinds {
		i, kind := i, kind
		eg.Go(func() error {
			results[i] = g.section(ctx, th, kind, in)
			return nil
		})
	}
	// Tasks never return errors; Wait is the fan-in barrier
	_ = eg.Wait()

	types.SortSections(results)
	return results
}

// section runs one task: throttle, one inference call, fallback on any failure
func (g *Generator) section(ctx context.Context, th *throttle, kind Kind, in Input) types.ReportSection {
	out := types.ReportSection{Title: kind.Title(), Order: kind.Order()}
	logger := g.opts.Logger.With(zap.String("section", kind.Title()))

	text, err := g.generate(ctx, th, kind, in)
	if err != nil {
		logger.Warn("section generation failed, using fallback", zap.Error(err))
		out.Content = kind.Fallback(in)
		out.Fallback = true
		return out
	}
	logger.Debug("section generated", zap.Int("chars", len(text)))
	out.Content = text
	return out
}

func (g *Generator) generate(ctx context.Context, th *throttle, kind Kind, in Input) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("section task panicked")
		}
	}()

	prompt, err := kind.Prompt(in)
	if err != nil {
		return "", err
	}
	if err := th.wait(ctx); err != nil {
		return "", err
	}
	text, err = g.llm.GenerateContent(ctx, prompt, g.opts.Tier)
	if err != nil {
		return "", err
	}
	text = llm.NormalizeText(llm.CleanResponse(text))
	if text == "" {
		return "", errEmptySection
	}
	return text, nil
}

// Build generates all sections and compiles them into a Report
func (g *Generator) Build(ctx context.Context, in Input) *Report {
	sections := g.Sections(ctx, in)
	generatedAt := in.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = g.opts.Clock()
	}

	var failed []string
	for _, s := range sections {
		if s.Fallback {
			failed = append(failed, s.Title)
		}
	}

	sources := in.Sources
	if sources == nil {
		sources = []types.Document{}
	}
	return &Report{
		Query:       in.Query,
		Sections:    sections,
		Failed:      failed,
		Sources:     sources,
		GeneratedAt: generatedAt,
		Markdown:    Render(in.Query, sections, sources, generatedAt, g.opts.MarkFallbacks),
	}
}

// Compile returns the report text for a finished analysis, stamped with the
// generator's Clock. Use Build with Input.GeneratedAt for a fixed stamp.
func (g *Generator) Compile(ctx context.Context, query, analysis string, sources []types.Document) string {
	return g.Build(ctx, Input{Query: query, Analysis: analysis, Sources: sources}).Markdown
}
