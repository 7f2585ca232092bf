package rendering

import (
	"strings"
	"unicode"
)

// FileName returns the download name for a report on query:
// research_report_<first 20 characters, spaces as underscores>.md
func FileName(query string) string {
	return "research_report_" + slug(query, 20) + ".md"
}

// HTMLFileName is FileName with an .html extension
func HTMLFileName(query string) string {
	return strings.TrimSuffix(FileName(query), ".md") + ".html"
}

// slug keeps the first n runes of s, mapping spaces to underscores and
// dropping characters that are unsafe in file names.
func slug(s string, n int) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.TrimSpace(s) {
		if count == n {
			break
		}
		count++
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('-')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
