package research

import (
	"context"

	"github.com/jonathan/deep-research/internal/types"
)

// StaticSearcher returns a fixed result set, or Err when set.
// Used by tests and offline runs.
type StaticSearcher struct {
	Docs []types.Document
	Err  error
}

// Search returns the first maxResults documents.
func (s StaticSearcher) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	n := len(s.Docs)
	if maxResults > 0 && maxResults < n {
		n = maxResults
	}
	out := make([]types.Document, n)
	copy(out, s.Docs[:n])
	return out, nil
}

// SearchFunc adapts a function to the Searcher interface
type SearchFunc func(ctx context.Context, query string, maxResults int) ([]types.Document, error)

// Search calls f
func (f SearchFunc) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	return f(ctx, query, maxResults)
}
