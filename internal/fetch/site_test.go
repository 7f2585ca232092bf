package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSite(t *testing.T) {
	tests := []struct {
		url      string
		expected Site
	}{
		{"https://en.wikipedia.org/wiki/AI_safety", SiteWikipedia},
		{"https://arxiv.org/abs/2401.00001", SiteArxiv},
		{"https://export.arxiv.org/abs/2401.00001", SiteArxiv},
		{"https://github.com/org/repo", SiteGitHub},
		{"https://notgithub.com/org/repo", SiteGeneric},
		{"https://example.com/blog/post", SiteGeneric},
		{"::not a url", SiteGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSite(tt.url))
		})
	}
}

func TestSiteSelectors(t *testing.T) {
	assert.Contains(t, SiteContentSelectors(SiteWikipedia), "#mw-content-text")
	assert.Equal(t, ArticleSelectors(), SiteContentSelectors(SiteGeneric))
	assert.Contains(t, SiteNoiseSelectors(SiteWikipedia), ".mw-editsection")
	assert.Contains(t, SiteNoiseSelectors(SiteGeneric), ".comments")
}

func TestPageText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><nav>Menu</nav><article><p>Article text</p><div class="comments">c</div></article></body></html>`))
	}))
	defer server.Close()

	text, err := PageText(context.Background(), server.URL, PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Article text", text)
}

func TestPageText_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := PageText(context.Background(), server.URL, PageOptions{})
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("short"))
	long := make([]byte, MinContentLength)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}
