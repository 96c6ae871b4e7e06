package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the config file and reports edits to a callback, letting
// operators adjust the log level, chat instructions, or venue defaults
// without restarting the server and dropping live voice sessions. Polling
// is deliberate: the file usually lives on a bind mount where inotify
// events are unreliable.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu       sync.Mutex
	current  *Config
	done     chan struct{}
	stopOnce sync.Once

	// state of the file as of the last successful read
	seenMtime time.Time
	seenSum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and starts polling it in the
// background. The initial load must succeed; the server refuses to start on
// a broken config rather than serving with defaults.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, sum, mtime, err := w.readConfig()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.seenSum = sum
	w.seenMtime = mtime

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends the polling goroutine. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.rescan()
		}
	}
}

// rescan swaps in the new config and fires onChange when the file content
// actually changed and still validates. A broken edit keeps the previous
// config in place.
func (w *Watcher) rescan() {
	// Stat first; hashing the file every tick is wasted work when nothing
	// touched it.
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.seenMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	cfg, sum, newMtime, err := w.readConfig()
	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()

	if sum == w.seenSum {
		// Touched but identical, e.g. a redeploy rewrote the same file.
		w.seenMtime = newMtime
		w.mu.Unlock()
		return
	}

	old := w.current
	w.current = cfg
	w.seenSum = sum
	w.seenMtime = newMtime
	w.mu.Unlock()

	slog.Info("config watcher: configuration reloaded", "path", w.path)

	// Callback runs outside the lock so it can call Current().
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// readConfig parses and validates the file, returning the config together
// with the content hash and mtime used for change detection.
func (w *Watcher) readConfig() (*Config, [sha256.Size]byte, time.Time, error) {
	var zeroSum [sha256.Size]byte

	info, err := os.Stat(w.path)
	if err != nil {
		return nil, zeroSum, time.Time{}, err
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, zeroSum, time.Time{}, err
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, zeroSum, time.Time{}, err
	}

	return cfg, sha256.Sum256(data), info.ModTime(), nil
}
