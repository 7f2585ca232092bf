// Package prompts holds the embedded prompt templates for the research
// stages and the report sections.
//
// Each JSON file maps a hyphenated key (e.g. "analyze-query" in research.json)
// to a template. Placeholders take the form {{.Name}}.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// parsed prompt files keyed by file name
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get returns the template stored under key in file (e.g. "report.json").
func Get(file, key string) (string, error) {
	set, err := loadFile(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// MustGet is Get for templates the binary cannot run without.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format fills {{.Name}} placeholders from data in a single left-to-right
// pass. Substituted text is never rescanned, so a value that itself contains
// a placeholder is inserted verbatim. Placeholders without data are left in
// place.
func Format(tmpl string, data map[string]string) string {
	if len(data) == 0 {
		return tmpl
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "{{."+name+"}}", data[name])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func loadFile(file string) (map[string]string, error) {
	cacheMu.RLock()
	set, ok := cache[file]
	cacheMu.RUnlock()
	if ok {
		return set, nil
	}

	raw, err := promptFiles.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	cacheMu.Lock()
	cache[file] = set
	cacheMu.Unlock()
	return set, nil
}

// ClearCache drops parsed files so the next Get re-reads them.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns the keys defined in file, sorted.
func List(file string) ([]string, error) {
	set, err := loadFile(file)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
