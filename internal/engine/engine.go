package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/notify"
	"github.com/roach88/noderegistry/internal/registry"
	"github.com/roach88/noderegistry/internal/store"
)

// Engine couples a registry with its event log.
//
// Thread-safety model:
//   - Registry(): safe from any goroutine; the registry is itself safe
//   - Mutate(): safe from any goroutine; mutations serialize on the
//     registry lock
//   - Bootstrap(): call once, before concurrent use
type Engine struct {
	store  *store.Store
	clock  *Clock
	ids    event.IDGenerator
	now    func() time.Time
	logger *slog.Logger
	tracer trace.Tracer
	fanout *notify.Fanout

	mu       sync.Mutex // guards the fields below
	reg      *registry.Registry
	lastHash string
	failed   error
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the event id generator. Default: UUIDv7.
func WithIDGenerator(g event.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithWallClock sets the clock used to stamp event times. Default: time.Now.
func WithWallClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithNotifier adds a notifier that receives every recorded event after it
// has been appended to the log. May be given more than once.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		e.fanout.Add(n)
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracer sets the tracer handed to the registry.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// Open creates an engine over st and replays its log. An empty log yields
// an uninitialized engine; call Bootstrap to create the registry.
//
// Open fails if the log's hash chain is broken or if its events do not
// form a consistent history.
func Open(ctx context.Context, st *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  st,
		clock:  NewClock(),
		ids:    event.UUIDv7Generator{},
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		fanout: notify.NewFanout(),
	}
	for _, opt := range opts {
		opt(e)
	}

	events, err := st.ReadEvents(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	if len(events) == 0 {
		e.logger.Debug("event log empty")
		return e, nil
	}
	if err := event.VerifyChain(events); err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	reg, err := registry.Restore(ctx, events, e.registryOptions()...)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	last := events[len(events)-1]
	e.reg = reg
	e.clock = NewClockAt(last.Seq)
	e.lastHash = last.Hash
	if r, ok := e.ids.(event.Resumer); ok {
		r.Resume(last.Seq)
	}
	e.logger.Debug("event log replayed", "events", len(events), "head", last.Hash)
	return e, nil
}

func (e *Engine) registryOptions() []registry.Option {
	opts := []registry.Option{
		registry.WithNotifier(registry.NotifierFunc(e.record)),
		registry.WithClock(e.now),
		registry.WithLogger(e.logger),
	}
	if e.tracer != nil {
		opts = append(opts, registry.WithTracer(e.tracer))
	}
	return opts
}

// Bootstrap creates the registry with the given owner and records the
// registry-created event. Fails with ErrAlreadyInitialized on a non-empty
// log.
func (e *Engine) Bootstrap(ctx context.Context, owner registry.Principal) error {
	e.mu.Lock()
	initialized := e.reg != nil
	e.mu.Unlock()
	if initialized {
		return ErrAlreadyInitialized
	}

	reg, err := registry.New(ctx, owner, e.registryOptions()...)
	if err != nil {
		return err
	}
	if err := e.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.reg = reg
	e.mu.Unlock()
	e.logger.Info("registry initialized", "owner", owner)
	return nil
}

// Initialized reports whether the registry exists.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg != nil
}

// Registry returns the live registry for queries.
func (e *Engine) Registry() (*registry.Registry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reg == nil {
		return nil, ErrNotInitialized
	}
	return e.reg, nil
}

// Mutate runs fn against the live registry and reports, in addition to
// fn's own error, any failure to record the events fn committed.
func (e *Engine) Mutate(ctx context.Context, fn func(*registry.Registry) error) error {
	reg, err := e.Registry()
	if err != nil {
		return err
	}
	if err := e.Err(); err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return e.Err()
}

// Err returns ErrDiverged (wrapped with its cause) once recording has
// failed, nil otherwise.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// Head returns the seq and hash of the last recorded event.
func (e *Engine) Head() (int64, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Current(), e.lastHash
}

// Store returns the underlying event log.
func (e *Engine) Store() *store.Store {
	return e.store
}

// record seals ev, appends it and fans it out. It runs under the registry
// lock, once per committed mutation.
func (e *Engine) record(ctx context.Context, ev event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed != nil {
		return e.failed
	}

	sealed, err := event.Seal(ev, e.clock.Next(), e.ids.Generate(), e.lastHash)
	if err == nil {
		err = e.store.AppendEvent(ctx, sealed)
	}
	if err != nil {
		e.failed = fmt.Errorf("%w: %v", ErrDiverged, err)
		e.logger.Error("event not recorded", "kind", ev.Kind, "error", err)
		return e.failed
	}
	e.lastHash = sealed.Hash

	if e.fanout.Len() > 0 {
		if err := e.fanout.Notify(ctx, sealed); err != nil {
			e.logger.Warn("notifier failed", "seq", sealed.Seq, "kind", sealed.Kind, "error", err)
		}
	}
	return nil
}
