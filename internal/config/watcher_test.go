package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meetpoint-app/meetpoint/internal/config"
)

const watcherBaseYAML = `
server:
  log_level: info
providers:
  llm:
    name: gemini
    api_key: test-key
venues:
  city: London
`

// rewriteConfig replaces the config file on disk, as an operator editing it
// in place would.
func rewriteConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config %q: %v", path, err)
	}
}

// startWatcher writes yaml to a temp config file and starts a fast-polling
// watcher on it. Reloads are delivered on the returned channel.
func startWatcher(t *testing.T, yaml string) (*config.Watcher, string, <-chan *config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meetpoint.yaml")
	rewriteConfig(t, path, yaml)

	reloads := make(chan *config.Config, 4)
	w, err := config.NewWatcher(path, func(_, updated *config.Config) {
		reloads <- updated
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, path, reloads
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	w, _, _ := startWatcher(t, watcherBaseYAML)

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Venues.City != "London" {
		t.Errorf("venue city = %q, want London", cfg.Venues.City)
	}
}

func TestWatcher_PicksUpEdit(t *testing.T) {
	t.Parallel()
	w, path, reloads := startWatcher(t, watcherBaseYAML)

	// Move the deployment to another city and turn up logging.
	time.Sleep(100 * time.Millisecond)
	rewriteConfig(t, path, `
server:
  log_level: debug
providers:
  llm:
    name: gemini
    api_key: test-key
venues:
  city: Berlin
`)

	select {
	case updated := <-reloads:
		if updated.Venues.City != "Berlin" {
			t.Errorf("reloaded city = %q, want Berlin", updated.Venues.City)
		}
		if updated.Server.LogLevel != config.LogDebug {
			t.Errorf("reloaded log_level = %q, want %q", updated.Server.LogLevel, config.LogDebug)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("edit was not picked up within timeout")
	}

	if got := w.Current().Venues.City; got != "Berlin" {
		t.Errorf("Current() city = %q, want Berlin", got)
	}
}

func TestWatcher_BrokenEditKeepsServing(t *testing.T) {
	t.Parallel()
	w, path, reloads := startWatcher(t, watcherBaseYAML)

	// An invalid log level must not reach the running server.
	time.Sleep(100 * time.Millisecond)
	rewriteConfig(t, path, `
server:
  log_level: bananas
`)

	select {
	case updated := <-reloads:
		t.Fatalf("broken config was swapped in: %+v", updated)
	case <-time.After(300 * time.Millisecond):
	}

	if got := w.Current().Venues.City; got != "London" {
		t.Errorf("Current() city = %q, want the pre-edit London", got)
	}
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	_, path, reloads := startWatcher(t, watcherBaseYAML)

	// A redeploy can rewrite the identical file; mtime moves, content does
	// not, and the callback must stay quiet.
	time.Sleep(100 * time.Millisecond)
	later := time.Now().Add(time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("failed to touch config: %v", err)
	}

	select {
	case <-reloads:
		t.Error("touch-only change triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher("/nonexistent/meetpoint.yaml", nil); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	w, _, _ := startWatcher(t, watcherBaseYAML)

	w.Stop()
	w.Stop()
}
