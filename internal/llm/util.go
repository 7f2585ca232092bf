// Package llm - util.go provides shared utilities for model response processing.
package llm

import (
	"regexp"
	"strings"
)

// CleanResponse removes a code fence that wraps the whole response.
// Models often wrap markdown answers in ```markdown ... ``` blocks even when
// asked for plain text. Fences inside the text (e.g. mermaid) are kept.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	inner := strings.TrimPrefix(text, "```")
	idx := strings.Index(inner, "\n")
	if idx < 0 {
		return text
	}
	// Only unwrap when the first line is a bare language identifier
	lang := inner[:idx]
	if strings.ContainsAny(lang, " {") || len(lang) >= 20 {
		return text
	}
	inner = strings.TrimSuffix(inner[idx+1:], "```")
	if strings.Contains(inner, "```") {
		// Nested fences: the outer pair is not a wrapper
		return text
	}
	return strings.TrimSpace(inner)
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// NormalizeText tidies model output while preserving its markdown structure:
// CRLF becomes LF, trailing whitespace is dropped from every line and runs of
// blank lines collapse to one.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(excessBlankLines.ReplaceAllString(text, "\n\n"))
}
