package venues

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
)

// Chat is the text-mode assistant for follow-up questions about venues and
// journeys. History accumulates server-side across Send calls until Reset.
// Text mode and voice mode are mutually exclusive; the composition root
// resets the chat when a voice session ends.
//
// Safe for concurrent use; Send calls are serialized.
type Chat struct {
	provider llm.Provider

	mu      sync.Mutex
	system  string
	history []llm.Message
}

// NewChat creates a Chat with the given system instruction.
func NewChat(provider llm.Provider, system string) *Chat {
	return &Chat{provider: provider, system: system}
}

// Send appends the user message to the history, streams the model's reply,
// and returns the accumulated text. A stream that ends with an error chunk
// surfaces as an error; the failed exchange is not recorded.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("venues: empty chat message")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]llm.Message, len(c.history), len(c.history)+1)
	copy(messages, c.history)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	chunks, err := c.provider.StreamCompletion(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: c.system,
	})
	if err != nil {
		return "", fmt.Errorf("venues: chat: %w", err)
	}

	var reply strings.Builder
	for chunk := range chunks {
		if chunk.FinishReason == "error" {
			return "", fmt.Errorf("venues: chat stream: %s", chunk.Text)
		}
		reply.WriteString(chunk.Text)
	}

	c.history = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply.String()})
	return reply.String(), nil
}

// History returns a copy of the accumulated conversation.
func (c *Chat) History() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}

// SetSystem replaces the system instruction for subsequent exchanges.
func (c *Chat) SetSystem(system string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = system
}

// Reset discards the accumulated history, starting a fresh conversation.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}
