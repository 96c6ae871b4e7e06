// Package llm defines the Provider interface for text-mode Large Language
// Model backends.
//
// An LLM provider wraps a remote model API and exposes a uniform interface
// for the text assistant and the venue finder to perform completions without
// coupling to any specific SDK.
//
// Implementors must be safe for concurrent use. Channels returned by
// StreamCompletion must be closed by the implementation when the stream ends
// or when the supplied context is cancelled.
package llm

import "context"

// Message roles as used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation history.
type Message struct {
	// Role is one of RoleSystem, RoleUser, RoleAssistant.
	Role string

	// Content is the text of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages
	// and system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may
	// generate. Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is an optional high-priority instruction injected
	// before the conversation history.
	SystemPrompt string
}

// Chunk is a single fragment emitted by a streaming completion.
type Chunk struct {
	// Text is the incremental text content of this chunk. May be empty on
	// the final chunk.
	Text string

	// FinishReason is set on the final chunk and indicates why generation
	// stopped: "stop", "length", "error", or "" for non-final chunks. For
	// "error" chunks Text carries the error message.
	FinishReason string
}

// CompletionResponse is returned by the non-streaming Complete method.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any text LLM backend.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
type Provider interface {
	// StreamCompletion sends req to the model and returns a read-only
	// channel that emits Chunk values as they arrive. The channel is
	// closed by the implementation when generation finishes or when ctx is
	// cancelled. Callers must drain the channel to avoid goroutine leaks.
	//
	// Errors that occur after the channel is opened surface as a Chunk
	// with FinishReason "error"; the initial error return is non-nil only
	// for failures that prevent the stream from starting.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
