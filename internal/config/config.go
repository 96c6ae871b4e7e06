// Package config provides the configuration schema, loader, provider
// registry, and file watcher for the MeetPoint server.
package config

// LogLevel controls log verbosity for the MeetPoint server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for MeetPoint.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Voice     VoiceConfig     `yaml:"voice"`
	Venues    VenuesConfig    `yaml:"venues"`
}

// ServerConfig holds network and logging settings for the MeetPoint server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// model-backed concern. Each entry selects a named provider registered in
// the [Registry].
type ProvidersConfig struct {
	// Live selects the duplex voice conversation backend.
	Live ProviderEntry `yaml:"live"`

	// LLM selects the text backend for the venue finder and the chat
	// assistant.
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallback optionally selects a second text backend used when the
	// primary LLM fails or its circuit breaker is open.
	LLMFallback ProviderEntry `yaml:"llm_fallback"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "gemini", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`
}

// VoiceConfig holds the voice conversation settings.
type VoiceConfig struct {
	// Name is the provider voice used for spoken replies, empty for the
	// provider default.
	Name string `yaml:"name"`

	// Instructions is the system instruction sent at voice session setup.
	Instructions string `yaml:"instructions"`

	// FrameSize is the microphone callback period in samples. Zero selects
	// the built-in default.
	FrameSize int `yaml:"frame_size"`
}

// VenuesConfig holds venue search and persistence settings.
type VenuesConfig struct {
	// City scopes venue suggestions. Defaults to London.
	City string `yaml:"city"`

	// DBPath is the SQLite file for saved venues. Defaults to
	// "meetpoint.db" in the working directory.
	DBPath string `yaml:"db_path"`

	// ChatInstructions is the system prompt of the text assistant.
	ChatInstructions string `yaml:"chat_instructions"`
}
