package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dshills/reqguard/internal/llm"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/schema/validate"
)

// LLMOptions tunes the model calls made by LLM and LLMCritic.
type LLMOptions struct {
	Temperature float64
	MaxTokens   int
	Logger      *slog.Logger
}

func (o LLMOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// LLM extracts fields by prompting a model for JSON.
type LLM struct {
	provider llm.Provider
	opts     LLMOptions
}

// NewLLM returns an LLM-backed extractor.
func NewLLM(p llm.Provider, opts LLMOptions) *LLM {
	return &LLM{provider: p, opts: opts}
}

func (e *LLM) Name() string { return "llm" }

// Extract calls the model and validates its answer. A response that fails
// validation gets exactly one repair attempt.
func (e *LLM) Extract(ctx context.Context, req Request) (*schema.RequirementsRecord, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	allowed := keys(req.Checklist)
	lreq := &llm.Request{
		SystemPrompt: llm.BuildExtractSystemPrompt(req.Checklist),
		UserPrompt:   llm.BuildExtractUserPrompt(req.Text, req.Prior),
		Temperature:  e.opts.Temperature,
		MaxTokens:    e.opts.MaxTokens,
	}

	e.opts.logger().Debug("extraction prompt", "system", lreq.SystemPrompt, "user", lreq.UserPrompt)

	resp, err := e.provider.Complete(ctx, lreq)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	rec, parseErr := validate.ParseExtraction(resp.Content, allowed)
	if parseErr != nil {
		e.opts.logger().Warn("extraction output invalid, retrying", "error", parseErr)

		repair := *lreq
		repair.UserPrompt = llm.BuildRepairPrompt(lreq.UserPrompt, sanitizeErrForPrompt(parseErr))
		resp, err = e.provider.Complete(ctx, &repair)
		if err != nil {
			return nil, fmt.Errorf("LLM retry call failed: %w", err)
		}
		rec, parseErr = validate.ParseExtraction(resp.Content, allowed)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid model output after retry: %w", parseErr)
		}
	}

	rec.SourceText = req.Text
	rec.Extractor = resp.Model
	if rec.Extractor == "" {
		rec.Extractor = e.Name()
	}
	return rec, nil
}

// sanitizeErrForPrompt classifies a parse error into a fixed category string
// without echoing any LLM-generated content back into the retry prompt.
func sanitizeErrForPrompt(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "JSON parse failed"):
		return "JSON syntax error"
	case strings.Contains(msg, "fields object is required"):
		return "missing fields object"
	case strings.Contains(msg, "unknown field key"):
		return "field key not in checklist"
	case strings.Contains(msg, "arrays are not allowed"):
		return "array value (use a string or object)"
	default:
		return "schema mismatch"
	}
}

// LLMCritic asks a model for an adversarial review of the record.
type LLMCritic struct {
	provider llm.Provider
	opts     LLMOptions
}

// NewLLMCritic returns a Critic backed by p.
func NewLLMCritic(p llm.Provider, opts LLMOptions) *LLMCritic {
	return &LLMCritic{provider: p, opts: opts}
}

func (c *LLMCritic) Critique(ctx context.Context, req CritiqueRequest) (string, error) {
	resp, err := c.provider.Complete(ctx, &llm.Request{
		SystemPrompt: llm.BuildCritiqueSystemPrompt(),
		UserPrompt:   llm.BuildCritiqueUserPrompt(string(req.LoanType), req.Record, req.Gaps),
		Temperature:  c.opts.Temperature,
		MaxTokens:    c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("critique call failed: %w", err)
	}
	return validate.ParseCritique(resp.Content)
}
