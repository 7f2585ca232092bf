package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/deep-research/internal/config"
	"github.com/jonathan/deep-research/internal/fetch"
	"github.com/jonathan/deep-research/internal/llm"
	"github.com/jonathan/deep-research/internal/pipeline"
	"github.com/jonathan/deep-research/internal/report"
	"github.com/jonathan/deep-research/internal/research"
	"github.com/jonathan/deep-research/internal/types"
)

// offlineDocs stand in for search results in --offline runs
var offlineDocs = []types.Document{
	{
		Title:   "Offline source: background overview",
		URL:     "https://example.com/overview",
		Content: "A placeholder overview used when the agent runs without network access.",
		Source:  "example.com",
	},
	{
		Title:   "Offline source: recent developments",
		URL:     "https://example.org/developments",
		Content: "A placeholder summary of recent developments used for dry runs.",
		Source:  "example.org",
	},
}

// newModel builds the inference client for cfg
func newModel(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.Offline {
		return llm.Echo, nil
	}

	provider := llm.Provider(cfg.Provider)
	mc := llm.ConfigFor(provider)
	if cfg.Model != "" {
		mc = mc.WithAllModels(cfg.Model)
	}

	switch provider {
	case llm.ProviderOpenAI:
		if cfg.OpenAIBaseURL != "" {
			mc.BaseURL = cfg.OpenAIBaseURL
		}
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable or --api-key flag is required")
		}
		return llm.NewClient(ctx, mc, cfg.OpenAIAPIKey)
	default:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
		}
		return llm.NewClient(ctx, mc, cfg.APIKey)
	}
}

// newSearcher builds the search capability for cfg
func newSearcher(ctx context.Context, cfg config.Config, logger *zap.Logger) (research.Searcher, error) {
	if cfg.Offline {
		return research.StaticSearcher{Docs: offlineDocs}, nil
	}
	if cfg.SearchAPIKey == "" || cfg.SearchEngineID == "" {
		return nil, fmt.Errorf("SEARCH_API_KEY and SEARCH_ENGINE_ID environment variables are required")
	}

	cs, err := research.NewCustomSearch(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
	if err != nil {
		return nil, err
	}
	if !cfg.EnrichPages {
		return cs, nil
	}

	opts := research.DefaultEnrichOptions()
	opts.Page = fetch.PageOptions{UseBrowser: cfg.UseBrowser, Logger: logger}
	opts.Logger = logger
	return research.NewEnricher(cs, opts), nil
}

func newPipeline(model llm.Client, searcher research.Searcher, cfg config.Config, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(model, searcher, pipeline.Options{
		MaxResults:  cfg.MaxResults,
		KeepResults: cfg.KeepResults,
		Logger:      logger,
	})
}

func newGenerator(model llm.Client, cfg config.Config, logger *zap.Logger) *report.Generator {
	return report.NewGenerator(model, report.Options{
		Policy: report.Policy{
			MaxConcurrent: cfg.Workers,
			Delay:         cfg.PreCallDelay(),
			MinSpacing:    cfg.MinSpacing.Std(),
		},
		MarkFallbacks: cfg.MarkFallbacks,
		Logger:        logger,
	})
}
