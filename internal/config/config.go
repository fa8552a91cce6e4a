// Package config loads reqguard settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/reqguard/internal/review"
)

// FileNames are the config files looked for in the working directory, in
// order.
var FileNames = []string{"reqguard.yaml", ".reqguard.yaml"}

// Extractor names accepted by Config.Extractor.
const (
	ExtractorLLM       = "llm"
	ExtractorHeuristic = "heuristic"
)

// Config is the complete reqguard configuration.
type Config struct {
	// Extractor selects "llm" or "heuristic" (offline) extraction.
	Extractor  string           `yaml:"extractor"`
	Model      ModelConfig      `yaml:"model"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Checklists ChecklistsConfig `yaml:"checklists"`
	Server     ServerConfig     `yaml:"server"`
	Batch      BatchConfig      `yaml:"batch"`
}

// ModelConfig configures the LLM used for extraction and critique.
type ModelConfig struct {
	// Provider is a "provider:model" string, e.g. "anthropic:claude-sonnet-4-6".
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// OllamaURL is the base URL of an OpenAI-compatible local server.
	OllamaURL string `yaml:"ollama_url"`
	// Critic enables the advisory critique call.
	Critic bool `yaml:"critic"`
}

// WorkflowConfig bounds the refinement loop.
type WorkflowConfig struct {
	MaxIterations   int           `yaml:"max_iterations"`
	ExtractAttempts int           `yaml:"extract_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	MaxQuestions    int           `yaml:"max_questions"`
}

// ScoringConfig overrides the completeness weights and tier thresholds.
type ScoringConfig struct {
	Weights    review.Weights    `yaml:"weights"`
	Thresholds review.Thresholds `yaml:"thresholds"`
}

// ChecklistsConfig points at optional checklist overrides.
type ChecklistsConfig struct {
	Overrides string `yaml:"overrides"`
}

// ServerConfig configures `reqguard serve`.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// BatchConfig configures multi-file `reqguard check`.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extractor: ExtractorLLM,
		Model: ModelConfig{
			Provider:    "anthropic:claude-sonnet-4-6",
			Temperature: 0.2,
			MaxTokens:   4096,
			OllamaURL:   "http://localhost:11434/v1",
		},
		Workflow: WorkflowConfig{
			MaxIterations:   3,
			ExtractAttempts: 2,
			RetryDelay:      2 * time.Second,
			MaxQuestions:    5,
		},
		Scoring: ScoringConfig{
			Weights:    review.DefaultWeights,
			Thresholds: review.DefaultThresholds,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Extractor {
	case ExtractorLLM:
		if c.Model.Provider == "" {
			return fmt.Errorf("model.provider is required when extractor is %q", ExtractorLLM)
		}
	case ExtractorHeuristic:
	default:
		return fmt.Errorf("extractor must be %q or %q, got %q", ExtractorLLM, ExtractorHeuristic, c.Extractor)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("model.max_tokens must be >= 0")
	}
	if c.Workflow.MaxIterations < 0 {
		return fmt.Errorf("workflow.max_iterations must be >= 0")
	}
	if c.Workflow.ExtractAttempts < 0 {
		return fmt.Errorf("workflow.extract_attempts must be >= 0")
	}
	if c.Workflow.MaxQuestions < 0 {
		return fmt.Errorf("workflow.max_questions must be >= 0")
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring.weights: %w", err)
	}
	if err := c.Scoring.Thresholds.Validate(); err != nil {
		return fmt.Errorf("scoring.thresholds: %w", err)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be > 0")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
// A relative checklists.overrides path is resolved against the file's
// directory.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if o := config.Checklists.Overrides; o != "" && !filepath.IsAbs(o) {
		config.Checklists.Overrides = filepath.Join(filepath.Dir(path), o)
	}
	return config, nil
}

// Load resolves the configuration: an explicit path must exist; otherwise
// the first of FileNames found in dir is used; otherwise the defaults.
// Environment overrides are applied last.
func Load(path, dir string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = LoadFromFile(path)
	default:
		cfg, err = findIn(dir)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func findIn(dir string) (*Config, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("checking %s: %w", p, err)
		}
	}
	return DefaultConfig(), nil
}

// ApplyEnv overlays REQGUARD_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("REQGUARD_MODEL"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("REQGUARD_EXTRACTOR"); v != "" {
		c.Extractor = strings.ToLower(v)
	}
	if v := os.Getenv("REQGUARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). A zero in other never overrides, so Merge cannot lower
// a setting to zero; use the YAML file for that.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Extractor != "" {
		c.Extractor = other.Extractor
	}

	// Model
	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.MaxTokens != 0 {
		c.Model.MaxTokens = other.Model.MaxTokens
	}
	if other.Model.OllamaURL != "" {
		c.Model.OllamaURL = other.Model.OllamaURL
	}
	if other.Model.Critic {
		c.Model.Critic = true
	}

	// Workflow
	if other.Workflow.MaxIterations != 0 {
		c.Workflow.MaxIterations = other.Workflow.MaxIterations
	}
	if other.Workflow.ExtractAttempts != 0 {
		c.Workflow.ExtractAttempts = other.Workflow.ExtractAttempts
	}
	if other.Workflow.RetryDelay != 0 {
		c.Workflow.RetryDelay = other.Workflow.RetryDelay
	}
	if other.Workflow.MaxQuestions != 0 {
		c.Workflow.MaxQuestions = other.Workflow.MaxQuestions
	}

	// Scoring
	if other.Scoring.Weights != (review.Weights{}) {
		c.Scoring.Weights = other.Scoring.Weights
	}
	if other.Scoring.Thresholds != (review.Thresholds{}) {
		c.Scoring.Thresholds = other.Scoring.Thresholds
	}

	if other.Checklists.Overrides != "" {
		c.Checklists.Overrides = other.Checklists.Overrides
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.SessionTTL != 0 {
		c.Server.SessionTTL = other.Server.SessionTTL
	}

	if other.Batch.Concurrency != 0 {
		c.Batch.Concurrency = other.Batch.Concurrency
	}
}
