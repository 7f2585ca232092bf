package research

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/deep-research/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedup(t *testing.T) {
	docs := []types.Document{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "A again", URL: "https://www.Example.com/a/"},
		{Title: "A fragment", URL: "https://example.com/a#section"},
		{Title: "B", URL: "https://example.com/b?page=2"},
		{Title: "B other page", URL: "https://example.com/b?page=3"},
		{Title: "No URL"},
		{Title: "No URL either"},
	}

	got := Dedup(docs)
	titles := types.Titles(got, len(got))
	assert.Equal(t, []string{"A", "B", "B other page", "No URL", "No URL either"}, titles)
}

func TestKeep(t *testing.T) {
	docs := []types.Document{{Title: "1"}, {Title: "2"}, {Title: "3"}}

	assert.Len(t, Keep(docs, 2), 2)
	assert.Len(t, Keep(docs, 0), 3)
	assert.Len(t, Keep(docs, 10), 3)
	assert.Empty(t, Keep(nil, 2))
}

func TestFillSource(t *testing.T) {
	docs := []types.Document{
		{URL: "https://www.nature.com/articles/1"},
		{URL: "https://example.com", Source: "Example News"},
		{URL: ""},
	}
	FillSource(docs)

	assert.Equal(t, "nature.com", docs[0].Source)
	assert.Equal(t, "Example News", docs[1].Source)
	assert.Equal(t, "", docs[2].Source)
}

func TestStaticSearcher(t *testing.T) {
	s := StaticSearcher{Docs: []types.Document{{Title: "1"}, {Title: "2"}, {Title: "3"}}}

	docs, err := s.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// Returned slice is a copy
	docs[0].Title = "changed"
	assert.Equal(t, "1", s.Docs[0].Title)

	failing := StaticSearcher{Err: errors.New("boom")}
	_, err = failing.Search(context.Background(), "q", 2)
	assert.EqualError(t, err, "boom")
}
