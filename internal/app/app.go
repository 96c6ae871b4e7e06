// Package app wires all MeetPoint subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP API until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject fakes via functional options (WithDeviceContext,
// WithListenAddr). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meetpoint-app/meetpoint/internal/config"
	"github.com/meetpoint-app/meetpoint/internal/health"
	"github.com/meetpoint-app/meetpoint/internal/observe"
	"github.com/meetpoint-app/meetpoint/internal/server"
	"github.com/meetpoint-app/meetpoint/internal/venues"
	"github.com/meetpoint-app/meetpoint/internal/voice"
	"github.com/meetpoint-app/meetpoint/pkg/audio/device"
	"github.com/meetpoint-app/meetpoint/pkg/provider/live"
	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured; the corresponding features respond with 503.
// Populated by main.go via the config registry.
type Providers struct {
	Live live.Provider
	LLM  llm.Provider
}

// App owns all subsystem lifetimes and serves the MeetPoint API.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics

	// Subsystems — initialised in New, torn down in Shutdown.
	devices device.Context
	voice   *voice.Supervisor
	store   *venues.Store
	finder  *venues.Finder
	chat    *venues.Chat
	httpSrv *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithDeviceContext injects an audio device context instead of opening the
// platform one. Tests pass device.NewFake.
func WithDeviceContext(dc device.Context) Option {
	return func(a *App) { a.devices = dc }
}

// WithMetrics injects the metric instruments. Nil disables instrumentation.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Saved-venue store ─────────────────────────────────────────────
	store, err := venues.OpenStore(cfg.Venues.DBPath)
	if err != nil {
		return nil, fmt.Errorf("app: open venue store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: venue store unreachable: %w", err)
	}

	// ── 2. Text-model features ───────────────────────────────────────────
	if providers.LLM != nil {
		a.finder = venues.NewFinder(providers.LLM, venues.WithCity(cfg.Venues.City))
		a.chat = venues.NewChat(providers.LLM, cfg.Venues.ChatInstructions)
	} else {
		slog.Warn("no text model configured; venue search and chat disabled")
	}

	// ── 3. Voice supervisor ──────────────────────────────────────────────
	if providers.Live != nil {
		if err := a.initVoice(); err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: init voice: %w", err)
		}
	} else {
		slog.Warn("no live provider configured; voice mode disabled")
	}

	// ── 4. HTTP server ───────────────────────────────────────────────────
	a.httpSrv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initVoice opens the audio device context and builds the voice supervisor.
func (a *App) initVoice() error {
	if a.devices == nil {
		mc, err := device.NewMalgoContext()
		if err != nil {
			return fmt.Errorf("open audio context: %w", err)
		}
		a.devices = mc
		a.closers = append(a.closers, mc.Close)
	}

	voiceOpts := []voice.Option{}
	if a.metrics != nil {
		voiceOpts = append(voiceOpts, voice.WithMetrics(observe.NewVoiceRecorder(a.metrics)))
	}
	if a.chat != nil {
		// Voice and text mode share one conversation surface; ending a
		// voice session starts the text assistant fresh.
		voiceOpts = append(voiceOpts, voice.WithStopHook(a.chat.Reset))
	}

	a.voice = voice.New(a.providers.Live, a.devices, voice.Config{
		Instructions: a.cfg.Voice.Instructions,
		Voice:        a.cfg.Voice.Name,
		FrameSize:    a.cfg.Voice.FrameSize,
	}, voiceOpts...)
	a.closers = append(a.closers, func() error {
		a.voice.Stop()
		return nil
	})
	return nil
}

// buildHandler assembles the route table with readiness checks for every
// wired dependency.
func (a *App) buildHandler() http.Handler {
	checkers := []health.Checker{
		{Name: "database", Check: a.store.Ping},
	}
	checkers = append(checkers, health.Checker{
		Name: "providers",
		Check: func(context.Context) error {
			if a.providers.LLM == nil && a.providers.Live == nil {
				return errors.New("no providers configured")
			}
			return nil
		},
	})

	srv := server.New(server.Deps{
		Voice:   a.voice,
		Finder:  a.finder,
		Store:   a.store,
		Chat:    a.chat,
		Health:  health.New(checkers...),
		Metrics: a.metrics,
	})
	return srv.Handler()
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the HTTP API and blocks until ctx is cancelled or the listener
// fails. On cancellation the listener is drained gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.httpSrv.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(drainCtx); err != nil {
			slog.Warn("http server drain error", "err", err)
		}
		return gctx.Err()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return err
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfigChange applies the hot-reloadable subset of a config diff:
// log level, voice settings (next session), and chat instructions.
func (a *App) ApplyConfigChange(level *slog.LevelVar, old, updated *config.Config) {
	d := config.Diff(old, updated)
	if !d.Any() {
		return
	}

	if d.LogLevelChanged && level != nil {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VoiceChanged && a.voice != nil {
		a.voice.UpdateConfig(voice.Config{
			Instructions: updated.Voice.Instructions,
			Voice:        updated.Voice.Name,
			FrameSize:    updated.Voice.FrameSize,
		})
		slog.Info("voice settings updated; applies to the next session")
	}
	if d.ChatInstructionsChanged && a.chat != nil {
		a.chat.SetSystem(updated.Venues.ChatInstructions)
		slog.Info("chat instructions updated")
	}

	a.cfg = updated
}

// slogLevel maps a config log level to its slog equivalent.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll runs the accumulated closers after a failed New.
func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("closer error during rollback", "err", err)
		}
	}
	a.closers = nil
}
