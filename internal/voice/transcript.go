package voice

import (
	"sync"

	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
)

// Turn is one entry of the conversation log. While Live is true the turn is
// still accumulating fragments from its speaker; it becomes final when the
// other speaker opens a turn or the current turn completes.
type Turn struct {
	Speaker live.Speaker `json:"speaker"`
	Text    string       `json:"text"`
	Live    bool         `json:"live"`
}

// Transcript is an append-only ordered log of conversation turns. Fragments
// from the same speaker accumulate into the open turn; a fragment from the
// other speaker finalizes the open turn and starts a new one.
//
// Safe for concurrent use.
type Transcript struct {
	mu    sync.Mutex
	turns []Turn
}

// Append merges fragment into the open turn of the same speaker, or finalizes
// the open turn and starts a new live one.
func (t *Transcript) Append(speaker live.Speaker, fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.turns); n > 0 {
		last := &t.turns[n-1]
		if last.Live && last.Speaker == speaker {
			last.Text += fragment
			return
		}
		last.Live = false
	}
	t.turns = append(t.turns, Turn{Speaker: speaker, Text: fragment, Live: true})
}

// Finalize closes the open turn, if any.
func (t *Transcript) Finalize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.turns); n > 0 {
		t.turns[n-1].Live = false
	}
}

// Snapshot returns a copy of the log.
func (t *Transcript) Snapshot() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Clear removes all turns.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
