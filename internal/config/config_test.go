package config_test

import (
	"strings"
	"testing"

	"github.com/meetpoint-app/meetpoint/internal/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug

providers:
  live:
    name: gemini
    api_key: test-key
    model: gemini-2.5-flash-native-audio-preview-09-2025
  llm:
    name: gemini
    api_key: test-key
    model: gemini-2.5-flash

voice:
  name: Aoede
  instructions: "You help two people pick a fair meeting spot."
  frame_size: 4096

venues:
  city: London
  db_path: /tmp/meetpoint.db
  chat_instructions: "You answer follow-up questions about suggested venues."
`

// ── tests ────────────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":9090")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: got %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Providers.Live.Name != "gemini" {
		t.Errorf("live provider: got %q, want %q", cfg.Providers.Live.Name, "gemini")
	}
	if cfg.Providers.Live.APIKey != "test-key" {
		t.Errorf("live api_key: got %q, want %q", cfg.Providers.Live.APIKey, "test-key")
	}
	if cfg.Providers.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("llm model: got %q, want %q", cfg.Providers.LLM.Model, "gemini-2.5-flash")
	}
	if cfg.Voice.Name != "Aoede" {
		t.Errorf("voice name: got %q, want %q", cfg.Voice.Name, "Aoede")
	}
	if cfg.Voice.FrameSize != 4096 {
		t.Errorf("frame_size: got %d, want %d", cfg.Voice.FrameSize, 4096)
	}
	if cfg.Venues.DBPath != "/tmp/meetpoint.db" {
		t.Errorf("db_path: got %q, want %q", cfg.Venues.DBPath, "/tmp/meetpoint.db")
	}
	if cfg.Venues.ChatInstructions == "" {
		t.Error("chat_instructions: got empty, want populated")
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader("server:\n  log_level: info\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Venues.City != "London" {
		t.Errorf("default city: got %q, want %q", cfg.Venues.City, "London")
	}
	if cfg.Venues.DBPath != "meetpoint.db" {
		t.Errorf("default db_path: got %q, want %q", cfg.Venues.DBPath, "meetpoint.db")
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_levle: info
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_MalformedYAML(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server: [not a mapping"))
	if err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("expected %q to be valid", l)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error("expected \"trace\" to be invalid")
	}
	if config.LogLevel("").IsValid() {
		t.Error("expected empty level to be invalid")
	}
}
