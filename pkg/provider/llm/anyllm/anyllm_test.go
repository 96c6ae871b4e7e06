package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
)

// ── Constructor ───────────────────────────────────────────────────────────────

// TestNew_EmptyProviderName checks that an empty provider name returns an error.
func TestNew_EmptyProviderName(t *testing.T) {
	_, err := New("", "gpt-4o")
	if err == nil {
		t.Fatal("expected error for empty providerName")
	}
}

// TestNew_EmptyModel checks that an empty model name returns an error.
func TestNew_EmptyModel(t *testing.T) {
	_, err := New("openai", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

// TestNew_UnsupportedProvider checks that an unsupported provider returns an error.
func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New("fakecloud", "some-model", anyllmlib.WithAPIKey("dummy"))
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

// TestNew_OpenAI_WithAPIKey checks that the OpenAI backend constructs successfully.
func TestNew_OpenAI_WithAPIKey(t *testing.T) {
	p, err := New("openai", "gpt-4o", anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil provider")
	}
	if p.model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", p.model)
	}
}

// TestNew_OpenAI_MissingAPIKey checks that OpenAI errors when no API key is available.
// This relies on OPENAI_API_KEY not being set in the test environment.
func TestNew_OpenAI_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "") // Ensure env var is clear.
	_, err := New("openai", "gpt-4o")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

// TestNew_CaseInsensitiveProviderName checks that provider names are matched
// case-insensitively.
func TestNew_CaseInsensitiveProviderName(t *testing.T) {
	p, err := New("OpenAI", "gpt-4o", anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil provider")
	}
}

// TestConvenienceConstructors checks that all convenience constructors delegate correctly.
func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*Provider, error)
	}{
		{"NewOpenAI", func() (*Provider, error) { return NewOpenAI("gpt-4o", anyllmlib.WithAPIKey("sk-test")) }},
		{"NewAnthropic", func() (*Provider, error) {
			return NewAnthropic("claude-3-5-sonnet-latest", anyllmlib.WithAPIKey("sk-ant-test"))
		}},
		{"NewGemini", func() (*Provider, error) {
			return NewGemini("gemini-2.5-flash", anyllmlib.WithAPIKey("test-key"))
		}},
		{"NewOllama", func() (*Provider, error) { return NewOllama("llama3") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.fn()
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			if p == nil {
				t.Fatalf("%s: expected non-nil provider", tt.name)
			}
		})
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

// TestBuildParams_Messages checks conversation history conversion.
func TestBuildParams_Messages(t *testing.T) {
	p := &Provider{model: "gemini-2.5-flash"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Find a spot between Camden and Brixton."},
			{Role: llm.RoleAssistant, Content: "How about somewhere near Oval?"},
		},
	})

	if params.Model != "gemini-2.5-flash" {
		t.Errorf("expected model gemini-2.5-flash, got %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != "user" {
		t.Errorf("expected role user, got %q", params.Messages[0].Role)
	}
	if params.Messages[0].Content != "Find a spot between Camden and Brixton." {
		t.Errorf("unexpected content: %q", params.Messages[0].Content)
	}
	if params.Messages[1].Role != "assistant" {
		t.Errorf("expected role assistant, got %q", params.Messages[1].Role)
	}
}

// TestBuildParams_SystemPrompt checks that the system prompt is injected first.
func TestBuildParams_SystemPrompt(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt: "You are a meetup planning assistant.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Hi"},
		},
	})

	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != string(anyllmlib.RoleSystem) {
		t.Errorf("expected first role system, got %q", params.Messages[0].Role)
	}
	if params.Messages[0].Content != "You are a meetup planning assistant." {
		t.Errorf("unexpected system content: %q", params.Messages[0].Content)
	}
	if params.Messages[1].Role != "user" {
		t.Errorf("expected second role user, got %q", params.Messages[1].Role)
	}
}

// TestBuildParams_Tuning checks Temperature and MaxTokens pointer conversion.
func TestBuildParams_Tuning(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params := p.buildParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
		Temperature: 0.7,
		MaxTokens:   512,
	})

	if params.Temperature == nil || *params.Temperature != 0.7 {
		t.Errorf("expected Temperature pointer to 0.7, got %v", params.Temperature)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 512 {
		t.Errorf("expected MaxTokens pointer to 512, got %v", params.MaxTokens)
	}
}

// TestBuildParams_Defaults checks that zero tuning values are left unset so the
// backend applies its own defaults.
func TestBuildParams_Defaults(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})

	if params.Temperature != nil {
		t.Errorf("expected nil Temperature, got %v", *params.Temperature)
	}
	if params.MaxTokens != nil {
		t.Errorf("expected nil MaxTokens, got %v", *params.MaxTokens)
	}
}
