// Package research - filter.go provides result list helpers.
package research

import (
	"net/url"
	"strings"

	"github.com/jonathan/deep-research/internal/types"
)

// Dedup removes documents whose normalized URL was already seen, keeping the first.
// Documents without a URL are always kept.
func Dedup(docs []types.Document) []types.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		key := normalizeURL(d.URL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, d)
	}
	return out
}

// Keep returns the first n documents (all when n <= 0 or n >= len).
func Keep(docs []types.Document, n int) []types.Document {
	if n <= 0 || n >= len(docs) {
		return docs
	}
	return docs[:n]
}

// FillSource sets Source to the URL's host when the search backend left it empty.
func FillSource(docs []types.Document) {
	for i := range docs {
		if docs[i].Source == "" {
			docs[i].Source = domainOf(docs[i].URL)
		}
	}
}

func domainOf(urlStr string) string {
	if urlStr == "" {
		return ""
	}
	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

// normalizeURL lowercases scheme and host and drops fragments and trailing slashes.
func normalizeURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return strings.TrimSuffix(urlStr, "/")
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	return host + strings.TrimSuffix(parsed.EscapedPath(), "/") + queryPart(parsed)
}

func queryPart(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
