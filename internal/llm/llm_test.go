package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func TestBuildExtractSystemPrompt_ContainsChecklistKeys(t *testing.T) {
	c := checklist.Default().For(loan.FHA)
	sys := BuildExtractSystemPrompt(c)

	for _, key := range []string{"loan_amount", "mip_calculation", "dti_thresholds"} {
		if !strings.Contains(sys, "- "+key+" ") {
			t.Errorf("system prompt missing checklist key %q", key)
		}
	}
	if !strings.Contains(sys, "Loan type: FHA") {
		t.Errorf("system prompt missing loan type")
	}
}

func TestBuildExtractUserPrompt_WrapsText(t *testing.T) {
	prompt := BuildExtractUserPrompt("FHA loan with 3.5% down", nil)

	if !strings.Contains(prompt, "<requirements>\nFHA loan with 3.5% down\n</requirements>") {
		t.Errorf("prompt missing wrapped requirements: %q", prompt)
	}
	if strings.Contains(prompt, "<prior>") {
		t.Errorf("prompt should not contain prior block on first pass: %q", prompt)
	}
}

func TestBuildExtractUserPrompt_IncludesPrior(t *testing.T) {
	prior := &schema.RequirementsRecord{Fields: map[string]schema.FieldValue{
		"credit_score": {Text: "580"},
	}}
	prompt := BuildExtractUserPrompt("text", prior)

	if !strings.Contains(prompt, "<prior>\ncredit_score: 580\n</prior>") {
		t.Errorf("prompt missing prior fields: %q", prompt)
	}
}

func TestBuildRepairPrompt(t *testing.T) {
	got := BuildRepairPrompt("original", "JSON syntax error")
	if !strings.HasPrefix(got, "original\n\n") || !strings.Contains(got, `(error category: "JSON syntax error")`) {
		t.Errorf("unexpected repair prompt: %q", got)
	}
}

func TestBuildCritiqueUserPrompt(t *testing.T) {
	rec := &schema.RequirementsRecord{SourceText: "VA loan for veterans"}
	gaps := []schema.Gap{{Label: "Credit score", Severity: schema.GapMissing, Priority: schema.PriorityCritical}}
	prompt := BuildCritiqueUserPrompt("VA", rec, gaps)

	if !strings.Contains(prompt, "- Credit score (missing, critical)") {
		t.Errorf("prompt missing gap line: %q", prompt)
	}
	if !strings.Contains(prompt, "VA loan for veterans") {
		t.Errorf("prompt missing source text: %q", prompt)
	}
}

func TestNewProvider_UnknownPrefix(t *testing.T) {
	_, err := NewProvider("gemini:gemini-pro")
	if err == nil {
		t.Error("expected error for unknown provider prefix, got nil")
	}
}

func TestNewProvider_InvalidFormat(t *testing.T) {
	_, err := NewProvider("nocoIon")
	if err == nil {
		t.Error("expected error for missing colon separator, got nil")
	}
}

func TestNewProvider_Anthropic_NoKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewProvider("anthropic:claude-sonnet-4-6")
	if err == nil {
		t.Error("expected error when ANTHROPIC_API_KEY not set, got nil")
	}
}

func TestNewProvider_OpenAI_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider("openai:gpt-4o")
	if err == nil {
		t.Error("expected error when OPENAI_API_KEY not set, got nil")
	}
}

func TestNewProvider_Ollama_NoKeyRequired(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "")
	p, err := NewProvider("ollama:llama3.1")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p == nil {
		t.Error("expected non-nil provider")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("missing api key header")
		}
		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.MaxTokens != defaultMaxTokens {
			t.Errorf("max_tokens = %d, want default %d", body.MaxTokens, defaultMaxTokens)
		}
		if body.Temperature != nil {
			t.Errorf("zero temperature should be omitted")
		}
		io.WriteString(w, `{"model":"claude-test","content":[{"type":"text","text":"{\"fields\":{}}"}]}`)
	}))
	defer srv.Close()

	old := AnthropicAPIURL()
	SetAnthropicAPIURL(srv.URL)
	defer SetAnthropicAPIURL(old)

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	p, err := NewProvider("anthropic:claude-test")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	resp, err := p.Complete(context.Background(), &Request{UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"fields":{}}` || resp.Model != "anthropic:claude-test" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAnthropicProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer srv.Close()

	old := AnthropicAPIURL()
	SetAnthropicAPIURL(srv.URL)
	defer SetAnthropicAPIURL(old)

	p := &anthropicProvider{model: "m", apiKey: "k"}
	_, err := p.Complete(context.Background(), &Request{UserPrompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("expected structured error, got %v", err)
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("no key configured, Authorization should be empty")
		}
		var body openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		io.WriteString(w, `{"model":"llama3.1","choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	old := OllamaURL()
	SetOllamaURL(srv.URL + "/v1")
	defer func() { ollamaURL = old }()

	t.Setenv("OLLAMA_API_KEY", "")
	p, err := NewProvider("ollama:llama3.1")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	resp, err := p.Complete(context.Background(), &Request{SystemPrompt: "sys", UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Model != "ollama:llama3.1" || resp.Content != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"gpt-4o","choices":[]}`)
	}))
	defer srv.Close()

	old := OpenAIAPIURL()
	SetOpenAIAPIURL(srv.URL)
	defer SetOpenAIAPIURL(old)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider("openai:gpt-4o")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, err := p.Complete(context.Background(), &Request{UserPrompt: "hi"}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short string: got %q", got)
	}
	if got := truncate("hello world", 5); got != "hello..." {
		t.Errorf("truncate long string: got %q", got)
	}
	if got := truncate("héllo", 3); got != "hél..." {
		t.Errorf("truncate multibyte: got %q, want %q", got, "hél...")
	}
}
