// Package types provides type definitions for structured data used throughout the research agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Document represents a single web search result
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// TitleOr returns the document title, or def when the title is blank
func (d Document) TitleOr(def string) string {
	if d.Title == "" {
		return def
	}
	return d.Title
}

// URLOr returns the document URL, or def when the URL is blank
func (d Document) URLOr(def string) string {
	if d.URL == "" {
		return def
	}
	return d.URL
}

// SourceOr returns the provenance label, or def when it is blank
func (d Document) SourceOr(def string) string {
	if d.Source == "" {
		return def
	}
	return d.Source
}

// Titles returns the titles of the first n documents ("Untitled" for blank titles)
func Titles(docs []Document, n int) []string {
	count := min(len(docs), n)
	titles := make([]string, 0, count)
	for i := 0; i < count; i++ {
		titles = append(titles, docs[i].TitleOr("Untitled"))
	}
	return titles
}
