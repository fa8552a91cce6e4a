package main

import (
	"log/slog"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/config"
	"github.com/dshills/reqguard/internal/extract"
	"github.com/dshills/reqguard/internal/llm"
	"github.com/dshills/reqguard/internal/workflow"
)

// backend is the extraction stack chosen by configuration.
type backend struct {
	registry  *checklist.Registry
	extractor extract.Extractor
	critic    extract.Critic
	model     string
}

// newRegistry builds the checklist registry, applying the override file
// when one is configured.
func newRegistry(cfg *config.Config) (*checklist.Registry, error) {
	if cfg.Checklists.Overrides == "" {
		return checklist.Default(), nil
	}
	overrides, err := checklist.LoadOverrides(cfg.Checklists.Overrides)
	if err != nil {
		return nil, codeError(exitUsage, "loading checklist overrides: %s", err)
	}
	reg, err := checklist.NewRegistry(overrides)
	if err != nil {
		return nil, codeError(exitUsage, "checklist overrides: %s", err)
	}
	return reg, nil
}

// newBackend resolves the registry, extractor and optional critic.
func newBackend(cfg *config.Config, logger *slog.Logger) (*backend, error) {
	reg, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	b := &backend{registry: reg}

	if cfg.Extractor == config.ExtractorHeuristic {
		b.extractor = extract.NewHeuristic()
		return b, nil
	}

	if cfg.Model.OllamaURL != "" {
		llm.SetOllamaURL(cfg.Model.OllamaURL)
	}
	provider, err := llm.NewProvider(cfg.Model.Provider)
	if err != nil {
		return nil, codeError(exitProvider, "creating LLM provider: %s", err)
	}
	opts := extract.LLMOptions{
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		Logger:      logger,
	}
	b.extractor = extract.NewLLM(provider, opts)
	if cfg.Model.Critic {
		b.critic = extract.NewLLMCritic(provider, opts)
	}
	b.model = cfg.Model.Provider
	return b, nil
}

// controllerOptions maps configuration onto workflow options.
func controllerOptions(cfg *config.Config, b *backend, logger *slog.Logger, rec workflow.Recorder) []workflow.Option {
	opts := []workflow.Option{
		workflow.WithMaxIterations(cfg.Workflow.MaxIterations),
		workflow.WithMaxQuestions(cfg.Workflow.MaxQuestions),
		workflow.WithWeights(cfg.Scoring.Weights),
		workflow.WithThresholds(cfg.Scoring.Thresholds),
		workflow.WithLogger(logger),
		workflow.WithVersion(version),
		workflow.WithMetrics(rec),
	}
	if b.critic != nil {
		opts = append(opts, workflow.WithCritic(b.critic))
	}
	return opts
}

// newFactory returns a session factory for the servers.
func newFactory(cfg *config.Config, b *backend, logger *slog.Logger, rec workflow.Recorder) func(...workflow.Option) *workflow.Controller {
	base := controllerOptions(cfg, b, logger, rec)
	deps := workflow.Deps{Registry: b.registry, Extractor: b.extractor}
	return func(extra ...workflow.Option) *workflow.Controller {
		opts := make([]workflow.Option, 0, len(base)+len(extra))
		opts = append(opts, base...)
		opts = append(opts, extra...)
		return workflow.New(deps, opts...)
	}
}

func runOptions(cfg *config.Config) workflow.RunOptions {
	return workflow.RunOptions{
		ExtractAttempts: cfg.Workflow.ExtractAttempts,
		RetryDelay:      cfg.Workflow.RetryDelay,
	}
}
