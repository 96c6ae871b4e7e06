package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"live": {"gemini", "openai"},
	"llm":  {"gemini", "openai", "anthropic", "ollama"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in the optional fields users commonly omit.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Venues.City == "" {
		cfg.Venues.City = "London"
	}
	if cfg.Venues.DBPath == "" {
		cfg.Venues.DBPath = "meetpoint.db"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("live", cfg.Providers.Live.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("llm", cfg.Providers.LLMFallback.Name)

	if cfg.Providers.LLMFallback.Name != "" && cfg.Providers.LLM.Name == "" {
		errs = append(errs, fmt.Errorf("providers.llm_fallback requires providers.llm to be configured"))
	}

	// Provider availability
	if cfg.Providers.Live.Name != "" && cfg.Providers.Live.APIKey == "" {
		errs = append(errs, fmt.Errorf("providers.live.api_key is required when providers.live is configured"))
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; venue search and text chat will be unavailable")
	}
	if cfg.Providers.Live.Name == "" {
		slog.Warn("no live provider configured; voice mode will be unavailable")
	}

	// Voice
	if cfg.Voice.FrameSize < 0 {
		errs = append(errs, fmt.Errorf("voice.frame_size %d must not be negative", cfg.Voice.FrameSize))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
