// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or come from CLI flags and the environment.
type Config struct {
	// Inference
	Provider      string `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	Model         string `json:"model,omitempty" yaml:"model,omitempty"`                   // Overrides every model tier
	APIKey        string `json:"api_key,omitempty" yaml:"api_key,omitempty"`               // Gemini API key
	OpenAIAPIKey  string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"` // OpenAI (compatible) API key
	OpenAIBaseURL string `json:"openai_base_url,omitempty" yaml:"openai_base_url,omitempty" validate:"omitempty,url"`

	// Search
	SearchAPIKey   string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"`
	SearchEngineID string `json:"search_engine_id,omitempty" yaml:"search_engine_id,omitempty"`
	MaxResults     int    `json:"max_results,omitempty" yaml:"max_results,omitempty" validate:"omitempty,min=1,max=10"`
	KeepResults    int    `json:"keep_results,omitempty" yaml:"keep_results,omitempty" validate:"omitempty,min=1,max=10"`
	EnrichPages    bool   `json:"enrich_pages,omitempty" yaml:"enrich_pages,omitempty"` // Replace short snippets with page text
	UseBrowser     bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`   // Use headless browser for SPA sites

	// Report generation
	Workers       int       `json:"workers,omitempty" yaml:"workers,omitempty" validate:"omitempty,min=1,max=5"`
	TaskDelay     *Duration `json:"task_delay,omitempty" yaml:"task_delay,omitempty" validate:"omitempty,gte=0"` // nil means default; 0 disables the delay
	MinSpacing    Duration  `json:"min_spacing,omitempty" yaml:"min_spacing,omitempty" validate:"gte=0"`
	MarkFallbacks bool      `json:"mark_fallbacks,omitempty" yaml:"mark_fallbacks,omitempty"`

	// Behavior
	PollInterval Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty" validate:"gte=0"`
	OutputDir    string   `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Addr         string   `json:"addr,omitempty" yaml:"addr,omitempty"` // HTTP listen address for serve
	Offline      bool     `json:"offline,omitempty" yaml:"offline,omitempty"`
	Verbose      bool     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration values
func Defaults() Config {
	return Config{
		Provider:     "gemini",
		MaxResults:   3,
		KeepResults:  2,
		Workers:      2,
		TaskDelay:    DurationOf(400 * time.Millisecond),
		PollInterval: Duration(300 * time.Millisecond),
		OutputDir:    "reports",
		Addr:         ":8080",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ValidationError lists the config fields that failed validation
type ValidationError struct {
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error: invalid %s: %v", strings.Join(e.Fields, ", "), e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Required credentials are not checked here since they depend on the command.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return &ValidationError{Fields: fields, Cause: err}
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.MaxResults > 0 && c.KeepResults > c.MaxResults {
		return fmt.Errorf("config error: 'keep_results' (%d) exceeds 'max_results' (%d)", c.KeepResults, c.MaxResults)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bool fields cannot distinguish unset from false, so they are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.OpenAIAPIKey, defaults.OpenAIAPIKey)
	mergeString(&result.OpenAIBaseURL, defaults.OpenAIBaseURL)
	mergeString(&result.SearchAPIKey, defaults.SearchAPIKey)
	mergeString(&result.SearchEngineID, defaults.SearchEngineID)
	mergeString(&result.OutputDir, defaults.OutputDir)
	mergeString(&result.Addr, defaults.Addr)

	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.KeepResults == 0 {
		result.KeepResults = defaults.KeepResults
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.TaskDelay == nil && defaults.TaskDelay != nil {
		d := *defaults.TaskDelay
		result.TaskDelay = &d
	}
	if result.MinSpacing == 0 {
		result.MinSpacing = defaults.MinSpacing
	}
	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}

	return result
}

// PreCallDelay is the delay each report section waits before its model call.
// An unset TaskDelay means no delay.
func (c *Config) PreCallDelay() time.Duration {
	if c.TaskDelay == nil {
		return 0
	}
	return c.TaskDelay.Std()
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Environment variables read by ApplyEnv
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvSearchAPIKey   = "SEARCH_API_KEY"
	EnvSearchEngineID = "SEARCH_ENGINE_ID"
)

// ApplyEnv fills empty credentials from the environment
func (c *Config) ApplyEnv() {
	mergeString(&c.APIKey, os.Getenv(EnvGeminiAPIKey))
	mergeString(&c.OpenAIAPIKey, os.Getenv(EnvOpenAIAPIKey))
	mergeString(&c.SearchAPIKey, os.Getenv(EnvSearchAPIKey))
	mergeString(&c.SearchEngineID, os.Getenv(EnvSearchEngineID))
}
