package prompts

import "strings"

// Truncate returns at most n runes of s. Cutting on rune boundaries keeps
// multi-byte titles and excerpts valid UTF-8 inside prompts.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Excerpt truncates s to n runes and flattens newlines into spaces.
func Excerpt(s string, n int) string {
	return strings.ReplaceAll(Truncate(s, n), "\n", " ")
}
