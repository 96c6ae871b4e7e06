package venues

import (
	"context"
	"errors"
	"testing"

	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
	llmmock "github.com/meetpoint-app/meetpoint/pkg/provider/llm/mock"
)

// TestChat_StreamsAndAccumulates checks that streamed deltas assemble into
// one reply and both sides land in the history.
func TestChat_StreamsAndAccumulates(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{StreamChunks: []llm.Chunk{
		{Text: "Try "},
		{Text: "the Southbank "},
		{Text: "Centre.", FinishReason: "stop"},
	}}
	c := NewChat(p, "You help plan meetups.")

	reply, err := c.Send(context.Background(), "Where should we meet?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "Try the Southbank Centre." {
		t.Errorf("unexpected reply: %q", reply)
	}

	hist := c.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
	if hist[0].Role != llm.RoleUser || hist[0].Content != "Where should we meet?" {
		t.Errorf("unexpected user entry: %+v", hist[0])
	}
	if hist[1].Role != llm.RoleAssistant || hist[1].Content != reply {
		t.Errorf("unexpected assistant entry: %+v", hist[1])
	}
}

// TestChat_HistoryCarriesAcrossSends checks that the second request includes
// the first exchange plus the system prompt.
func TestChat_HistoryCarriesAcrossSends(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{StreamChunks: []llm.Chunk{{Text: "ok", FinishReason: "stop"}}}
	c := NewChat(p, "You help plan meetups.")

	if _, err := c.Send(context.Background(), "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := c.Send(context.Background(), "second"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(p.StreamCalls) != 2 {
		t.Fatalf("expected 2 stream calls, got %d", len(p.StreamCalls))
	}
	req := p.StreamCalls[1].Req
	if req.SystemPrompt != "You help plan meetups." {
		t.Errorf("unexpected system prompt: %q", req.SystemPrompt)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages in second request, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != "first" || req.Messages[1].Content != "ok" || req.Messages[2].Content != "second" {
		t.Errorf("unexpected request messages: %+v", req.Messages)
	}
}

// TestChat_ErrorChunkNotRecorded checks that a failed stream leaves the
// history untouched.
func TestChat_ErrorChunkNotRecorded(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{StreamChunks: []llm.Chunk{
		{Text: "partial "},
		{FinishReason: "error", Text: "rate limited"},
	}}
	c := NewChat(p, "")

	if _, err := c.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from error chunk")
	}
	if got := c.History(); len(got) != 0 {
		t.Errorf("expected empty history after failed send, got %d entries", len(got))
	}
}

// TestChat_StreamStartFailure checks wrapping of immediate stream errors.
func TestChat_StreamStartFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	p := &llmmock.Provider{StreamErr: boom}
	c := NewChat(p, "")

	if _, err := c.Send(context.Background(), "hello"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped stream error, got %v", err)
	}
}

// TestChat_RejectsEmptyMessage checks input validation.
func TestChat_RejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{}
	c := NewChat(p, "")

	if _, err := c.Send(context.Background(), "   "); err == nil {
		t.Error("expected error for blank message")
	}
	if len(p.StreamCalls) != 0 {
		t.Errorf("expected no stream calls, got %d", len(p.StreamCalls))
	}
}

// TestChat_Reset checks that Reset starts a fresh conversation.
func TestChat_Reset(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{StreamChunks: []llm.Chunk{{Text: "ok", FinishReason: "stop"}}}
	c := NewChat(p, "")

	if _, err := c.Send(context.Background(), "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	c.Reset()
	if got := c.History(); len(got) != 0 {
		t.Fatalf("expected empty history after reset, got %d", len(got))
	}

	if _, err := c.Send(context.Background(), "second"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := len(p.StreamCalls[1].Req.Messages); got != 1 {
		t.Errorf("expected 1 message after reset, got %d", got)
	}
}
