// Package app provides the top-level application lifecycle for the betting
// bot. It wires the optional infrastructure (history store, pub/sub, archive,
// fan-out, notifications), builds the bot for the configured mode and runs it
// alongside the status server until the bot stops or the context is
// cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcelohmariano/blade/internal/config"
	"github.com/marcelohmariano/blade/internal/observe"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()

	// tracker is set once Run has built the session.
	tracker *observe.Tracker
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, builds the session for the configured mode and
// blocks until the bot stops. Replay returns nil at end of history.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)
	a.logger.DebugContext(ctx, "effective configuration", slog.Any("config", config.RedactedConfig(a.cfg)))

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	var s *session
	switch strings.ToLower(a.cfg.Mode) {
	case config.ModeLive:
		s, err = a.liveSession(ctx, deps)
	case config.ModeSimulate:
		s, err = a.simulateSession()
	case config.ModeReplay:
		s, err = a.replaySession(deps)
	case config.ModeRecord:
		s, err = a.recordSession(deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
	if err != nil {
		return fmt.Errorf("app: %s mode: %w", a.cfg.Mode, err)
	}
	a.tracker = s.tracker

	return a.run(ctx, deps, s)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Status reports the running session, or the zero Status before Run.
func (a *App) Status() observe.Status {
	if a.tracker == nil {
		return observe.Status{Mode: a.cfg.Mode}
	}
	return a.tracker.Status()
}
