package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// sharedHTTPClient is used by all providers; a 5-minute timeout covers slow LLM responses.
var sharedHTTPClient = &http.Client{
	Timeout: 5 * time.Minute,
}

// defaultMaxTokens is the fallback when Request.MaxTokens is not set.
const defaultMaxTokens = 4096

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 10 * 1024 * 1024 // 10 MiB

// Request holds the parameters for an LLM completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// Model overrides the provider's configured model when non-empty.
	Model string
}

// Response holds the result of an LLM completion call.
type Response struct {
	Content string
	Model   string // "provider:model" actually used, echoed into outcome meta
}

// Provider is the interface for LLM completion backends.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Providers lists the supported provider prefixes.
var Providers = []string{"anthropic", "openai", "ollama"}

// NewProvider parses a "provider:model" string and returns the appropriate Provider.
// API keys are read from the environment at construction time and validated immediately.
// Example: "anthropic:claude-sonnet-4-6", "openai:gpt-4o" or "ollama:llama3.1".
func NewProvider(providerModel string) (Provider, error) {
	name, model, ok := strings.Cut(providerModel, ":")
	if !ok || name == "" || model == "" {
		return nil, fmt.Errorf("invalid model format %q: expected provider:model (e.g. anthropic:claude-sonnet-4-6)", providerModel)
	}
	switch name {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return &anthropicProvider{model: model, apiKey: apiKey}, nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return &openaiProvider{model: model, apiKey: apiKey, url: OpenAIAPIURL, name: "openai"}, nil
	case "ollama":
		// Local OpenAI-compatible endpoint; a key is optional (vLLM, OpenRouter).
		return &openaiProvider{model: model, apiKey: os.Getenv("OLLAMA_API_KEY"), url: OllamaURL, name: "ollama"}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: supported providers are %s", name, strings.Join(Providers, ", "))
	}
}

// postJSON sends body to url and returns the (size-limited) response body and
// status code. Transport failures are errors; HTTP error statuses are not.
func postJSON(ctx context.Context, url string, body any, headers map[string]string) ([]byte, int, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := sharedHTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	return respBytes, resp.StatusCode, nil
}

// temperature returns nil for the zero value so the provider default applies.
func temperature(t float64) *float64 {
	if t == 0 {
		return nil
	}
	return &t
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
