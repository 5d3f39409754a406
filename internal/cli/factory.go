// Package cli wires configuration, persistence and collaborators into
// ready-to-serve editors for the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/cellmatch"
	"github.com/aretw0/folio/internal/config"
	"github.com/aretw0/folio/pkg/adapters/file"
	"github.com/aretw0/folio/pkg/adapters/loam"
	"github.com/aretw0/folio/pkg/adapters/nbformat"
	"github.com/aretw0/folio/pkg/adapters/process"
	"github.com/aretw0/folio/pkg/adapters/redis"
	"github.com/aretw0/folio/pkg/adapters/sqlite"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/gather"
	"github.com/aretw0/folio/pkg/observability"
	"github.com/aretw0/folio/pkg/persistence/middleware"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Options are the command line inputs shared by every command.
type Options struct {
	ConfigPath string
	SessionID  string
	Debug      bool
}

// Stack holds everything built from the configuration.
type Stack struct {
	Config    config.Config
	Logger    *slog.Logger
	Store     ports.StateStore
	Manager   *session.Manager
	Documents ports.DocumentProvider
	Registry  *prometheus.Registry
	Metrics   *observability.Metrics

	matcher *cellmatch.Matcher
	closers []func() error
}

// Setup loads the configuration and opens the snapshot store it names:
// Redis when an address is configured, then SQLite when a path is, files
// otherwise.
func Setup(opts Options) (*Stack, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	matcher, err := cellmatch.New(cfg.CellMarkers.Code, cfg.CellMarkers.Markdown)
	if err != nil {
		return nil, err
	}

	s := &Stack{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		matcher:  matcher,
	}

	var logSinks []io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logSinks = append(logSinks, f)
		s.closers = append(s.closers, f.Close)
	}
	s.Logger = createLogger(cfg.Level(), cfg.LogFormat, opts.Debug, logSinks...)
	s.Metrics = observability.NewMetrics(s.Registry)

	var managerOpts []session.Option
	managerOpts = append(managerOpts, session.WithLogger(s.Logger))
	if cfg.Redis.Addr != "" {
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		s.Store = store
		s.closers = append(s.closers, store.Close)
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(store.Client(), cfg.Redis.Prefix)))
		s.Logger.Debug("using redis snapshot store", "addr", cfg.Redis.Addr)
	} else if cfg.SQLite.Path != "" {
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Store = store
		s.closers = append(s.closers, store.Close)
		s.Logger.Debug("using sqlite snapshot store", "path", cfg.SQLite.Path)
	} else {
		s.Store = file.New(cfg.Sessions.Dir)
		s.Logger.Debug("using file snapshot store", "dir", cfg.Sessions.Dir)
	}
	s.Store, err = wrapStore(s.Store, cfg.Sessions)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Manager = session.NewManager(s.Store, managerOpts...)

	s.Documents, err = openDocuments(cfg.Documents)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// openDocuments returns the provider gathered notebooks are opened with.
func openDocuments(cfg config.Documents) (ports.DocumentProvider, error) {
	switch cfg.Backend {
	case "", "file":
		return file.NewDocuments(cfg.Dir), nil
	case "loam":
		docs, err := loam.Open(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open documents: %w", err)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("unknown documents backend %q", cfg.Backend)
	}
}

// wrapStore applies redaction and then encryption, so masked values are
// what gets encrypted.
func wrapStore(store ports.StateStore, cfg config.Sessions) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, ok, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if ok {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

// GatherEngine returns the configured gather engine: an external command
// when one is set, the built-in execution log otherwise.
func (s *Stack) GatherEngine() ports.GatherEngine {
	if s.Config.Gather.Command != "" {
		return process.NewEngine(s.Config.Gather.Command, s.Config.Gather.Args)
	}
	return gather.NewExecutionLog()
}

// NewEditor opens the document sessionID, resuming its saved state when
// there is one. An empty sessionID opens a throwaway document that is
// never saved.
func (s *Stack) NewEditor(ctx context.Context, sessionID string, extra ...folio.Option) (*folio.Editor, error) {
	fresh := func() domain.State {
		return domain.NewState(false, s.Config.Theme.Base, s.Config.Theme.Ignore)
	}

	hooks := s.Metrics.Hooks()
	if s.Logger.Enabled(ctx, slog.LevelDebug) {
		hooks = observability.Combine(hooks, observability.LoggingHooks(s.Logger))
	}

	opts := []folio.Option{
		folio.WithLogger(s.Logger),
		folio.WithMatcher(s.matcher),
		folio.WithTheme(s.Config.Theme.Base, s.Config.Theme.Ignore),
		folio.WithLifecycleHooks(hooks),
		folio.WithGather(s.GatherEngine(), nbformat.NewExporter(), s.Documents),
	}

	if sessionID != "" {
		state, err := s.Manager.LoadOrStart(ctx, sessionID, fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to open session %q: %w", sessionID, err)
		}
		opts = append(opts,
			folio.WithInitialState(*state),
			folio.WithSnapshotStore(s.Manager, sessionID),
		)
		s.Logger.Info("session opened", "session_id", sessionID, "cells", len(state.Cells))
	}

	return folio.New(append(opts, extra...)...), nil
}

// Close releases the store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
