package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// openaiAPIURL and ollamaURL are vars to allow test overrides via httptest.
var (
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
	ollamaURL    = "http://localhost:11434/v1/chat/completions"
)

// OpenAIAPIURL returns the current OpenAI API endpoint URL.
func OpenAIAPIURL() string { return openaiAPIURL }

// SetOpenAIAPIURL overrides the OpenAI API endpoint URL.
// Intended for use in tests only.
func SetOpenAIAPIURL(u string) { openaiAPIURL = u }

// OllamaURL returns the current OpenAI-compatible local endpoint.
func OllamaURL() string { return ollamaURL }

// SetOllamaURL points the ollama provider at base. A base URL without the
// chat/completions suffix gets it appended.
func SetOllamaURL(base string) {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasSuffix(base, "/chat/completions") {
		base += "/chat/completions"
	}
	ollamaURL = base
}

// openaiProvider speaks the chat completions API. It serves both OpenAI and
// compatible local servers; url is resolved per call so tests can swap it.
type openaiProvider struct {
	name   string
	model  string
	apiKey string // unexported; never serialized by encoding/json
	url    func() string
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *openaiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.UserPrompt})

	body := openaiRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature(req.Temperature),
	}
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}
	raw, status, err := postJSON(ctx, p.url(), body, headers)
	if err != nil {
		return nil, err
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(raw, &oaiResp); err != nil {
		return nil, fmt.Errorf("parsing response JSON (HTTP %d, body: %s): %w", status, truncate(string(raw), 200), err)
	}
	if status != http.StatusOK {
		if oaiResp.Error != nil {
			return nil, fmt.Errorf("%s: %s: %s", p.name, oaiResp.Error.Type, oaiResp.Error.Message)
		}
		return nil, fmt.Errorf("%s: HTTP %d: %s", p.name, status, truncate(string(raw), 200))
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty choices in response", p.name)
	}

	return &Response{
		Content: oaiResp.Choices[0].Message.Content,
		Model:   p.name + ":" + oaiResp.Model,
	}, nil
}
