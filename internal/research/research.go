// Package research implements the web search capability used by the research stage.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/deep-research/internal/fetch"
	"github.com/jonathan/deep-research/internal/types"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// MaxResultsLimit is the largest page size the search API accepts.
const MaxResultsLimit = 10

// Searcher is the search capability: a query in, an ordered list of documents out.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.Document, error)
}

// Error is a search transport or API failure.
type Error struct {
	Query   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search %q: %s: %v", e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("search %q: %s", e.Query, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CustomSearch searches the web through Google Programmable Search
type CustomSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewCustomSearch creates a new CustomSearch instance. Extra client options
// (endpoint, HTTP client) are passed through to the API client.
func NewCustomSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*CustomSearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	if cx == "" {
		return nil, fmt.Errorf("search engine ID is required")
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &CustomSearch{svc: svc, cx: cx}, nil
}

// Search returns up to maxResults documents in ranking order.
func (s *CustomSearch) Search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	resp, err := s.svc.Cse.List().Cx(s.cx).Q(query).Num(int64(clampResults(maxResults))).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Query: query, Message: "request failed", Cause: err}
	}

	docs := make([]types.Document, 0, len(resp.Items))
	for _, item := range resp.Items {
		docs = append(docs, types.Document{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Content: snippetText(item),
			Source:  item.DisplayLink,
		})
	}
	return docs, nil
}

// snippetText prefers the HTML snippet with markup stripped, then the plain snippet.
func snippetText(item *customsearch.Result) string {
	if item.HtmlSnippet != "" {
		if text := fetch.HTMLToText(item.HtmlSnippet); text != "" {
			return text
		}
	}
	return strings.Join(strings.Fields(item.Snippet), " ")
}

func clampResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxResultsLimit {
		return MaxResultsLimit
	}
	return n
}
