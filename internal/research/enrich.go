package research

import (
	"context"

	"github.com/jonathan/deep-research/internal/fetch"
	"github.com/jonathan/deep-research/internal/prompts"
	"github.com/jonathan/deep-research/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EnrichOptions configures page enrichment.
type EnrichOptions struct {
	// MinContent is the snippet length below which the page is fetched
	MinContent int
	// MaxContent caps the stored page text, in runes
	MaxContent int
	// Concurrency bounds simultaneous page fetches
	Concurrency int
	Page        fetch.PageOptions
	Logger      *zap.Logger
}

// DefaultEnrichOptions returns the enrichment defaults.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		MinContent:  400,
		MaxContent:  4000,
		Concurrency: 3,
	}
}

// Enricher wraps a Searcher and replaces short snippets with the page's main text.
// A page that cannot be fetched keeps its snippet; enrichment never fails a search.
type Enricher struct {
	next Searcher
	opts EnrichOptions
	page func(ctx context.Context, url string, opts fetch.PageOptions) (string, error)
}

// NewEnricher creates an Enricher over next.
func NewEnricher(next Searcher, opts EnrichOptions) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Page.Logger == nil {
		opts.Page.Logger = opts.Logger
	}
	return &Enricher{next: next, opts: opts, page: fetch.PageText}
}

// Search runs the wrapped search, then enriches the results in place.
func (e *Enricher) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	docs, err := e.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range docs {
		if docs[i].URL == "" || len([]rune(docs[i].Content)) >= e.opts.MinContent {
			continue
		}
		i := i
		g.Go(func() error {
			text, err := e.page(gctx, docs[i].URL, e.opts.Page)
			if err != nil {
				e.opts.Logger.Debug("enrichment skipped", zap.String("url", docs[i].URL), zap.Error(err))
				return nil
			}
			if len(text) <= len(docs[i].Content) {
				return nil
			}
			if e.opts.MaxContent > 0 {
				text = prompts.Truncate(text, e.opts.MaxContent)
			}
			docs[i].Content = text
			return nil
		})
	}
	// Workers never return errors
	_ = g.Wait()

	return docs, nil
}
