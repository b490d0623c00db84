package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/engine"
	"github.com/roach88/noderegistry/internal/notify"
	"github.com/roach88/noderegistry/internal/registry"
	"github.com/roach88/noderegistry/internal/store"
	"github.com/roach88/noderegistry/internal/telemetry"
)

// session is one command's view of the registry: the opened event log, the
// engine replayed from it and the tracer provider.
type session struct {
	opts    *RootOptions
	store   *store.Store
	engine  *engine.Engine
	tracing *telemetry.Provider
}

// openSession opens the configured database and replays its log.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	tracing, err := telemetry.NewProvider(telemetry.Config{
		Enabled: o.Config.Trace.Enabled,
		Writer:  o.errWriter,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up tracing", err)
	}

	o.Logger.Debug("opening database", "path", o.Config.Database)
	st, err := store.Open(o.Config.Database)
	if err != nil {
		_ = tracing.Shutdown(ctx)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng, err := engine.Open(ctx, st,
		engine.WithLogger(o.Logger),
		engine.WithTracer(tracing.Tracer(registry.TracerName)),
		engine.WithNotifier(notify.NewLogger(o.Logger, slog.LevelInfo)),
	)
	if err != nil {
		_ = st.Close()
		_ = tracing.Shutdown(ctx)
		return nil, WrapExitError(ExitFailure, "event log does not replay", err)
	}

	return &session{opts: o, store: st, engine: eng, tracing: tracing}, nil
}

// Close flushes spans and closes the database.
func (s *session) Close(ctx context.Context) {
	if err := s.tracing.Shutdown(ctx); err != nil {
		s.opts.Logger.Error("error flushing spans", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.opts.Logger.Error("error closing database", "error", err)
	}
}

// registry returns the live registry, failing if init has not been run.
func (s *session) registry() (*registry.Registry, error) {
	reg, err := s.engine.Registry()
	if errors.Is(err, engine.ErrNotInitialized) {
		return nil, WrapExitError(ExitCommandError, "registry not initialized (run init first)", err)
	}
	return reg, err
}

// mutate runs fn as the configured caller.
func (s *session) mutate(ctx context.Context, fn func(*registry.Registry, registry.Principal) error) error {
	caller, err := s.caller()
	if err != nil {
		return err
	}
	if _, err := s.registry(); err != nil {
		return err
	}
	return s.engine.Mutate(ctx, func(reg *registry.Registry) error {
		return fn(reg, caller)
	})
}

func (s *session) caller() (registry.Principal, error) {
	if s.opts.Config.Caller == "" {
		return "", NewExitError(ExitCommandError, "no caller: pass --as or set NODEREG_CALLER")
	}
	return registry.Principal(s.opts.Config.Caller), nil
}

// withSession opens a session for the duration of fn.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	s, err := o.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	return fn(ctx, s)
}
