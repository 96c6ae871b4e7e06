package config

import (
	"errors"
	"fmt"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
	livegemini "github.com/meetpoint-app/meetpoint/pkg/provider/live/gemini"
	liveopenai "github.com/meetpoint-app/meetpoint/pkg/provider/live/openai"
	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
	"github.com/meetpoint-app/meetpoint/pkg/provider/llm/anyllm"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// defaultLLMModels supplies a model per text backend when providers.llm.model
// is omitted.
var defaultLLMModels = map[string]string{
	"gemini":    "gemini-2.5-flash",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-sonnet-latest",
	"ollama":    "llama3",
}

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	live map[string]func(ProviderEntry) (live.Provider, error)
	llm  map[string]func(ProviderEntry) (llm.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		live: make(map[string]func(ProviderEntry) (live.Provider, error)),
		llm:  make(map[string]func(ProviderEntry) (llm.Provider, error)),
	}
}

// RegisterLive registers a live conversation provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLive(name string, factory func(ProviderEntry) (live.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[name] = factory
}

// RegisterLLM registers a text LLM provider factory under name.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// CreateLive instantiates a live provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateLive(entry ProviderEntry) (live.Provider, error) {
	r.mu.RLock()
	factory, ok := r.live[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: live/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateLLM instantiates a text LLM provider using the factory registered
// under entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// DefaultRegistry returns a Registry pre-populated with every provider this
// build ships: gemini and openai live backends, and the any-llm-go text
// backends.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterLive("gemini", func(e ProviderEntry) (live.Provider, error) {
		var opts []livegemini.Option
		if e.Model != "" {
			opts = append(opts, livegemini.WithModel(e.Model))
		}
		if e.BaseURL != "" {
			opts = append(opts, livegemini.WithBaseURL(e.BaseURL))
		}
		return livegemini.New(e.APIKey, opts...), nil
	})
	r.RegisterLive("openai", func(e ProviderEntry) (live.Provider, error) {
		var opts []liveopenai.Option
		if e.Model != "" {
			opts = append(opts, liveopenai.WithModel(e.Model))
		}
		if e.BaseURL != "" {
			opts = append(opts, liveopenai.WithBaseURL(e.BaseURL))
		}
		return liveopenai.New(e.APIKey, opts...), nil
	})

	for _, name := range []string{"gemini", "openai", "anthropic", "ollama"} {
		r.RegisterLLM(name, func(e ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			model := e.Model
			if model == "" {
				model = defaultLLMModels[e.Name]
			}
			return anyllm.New(e.Name, model, opts...)
		})
	}

	return r
}
