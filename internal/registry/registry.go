package registry

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/noderegistry/internal/event"
)

// TracerName is the instrumentation scope of registry spans.
const TracerName = "github.com/roach88/noderegistry/internal/registry"

type nodeRecord struct {
	approved bool
	addedBy  Principal
	addedAt  time.Time
}

// Registry is the registry handle. All methods are safe for concurrent use;
// every public call is one critical section.
type Registry struct {
	mu sync.RWMutex

	owner    Principal
	managers map[Principal]struct{}

	app AppInfo

	// nodes is both the existence index and the record map.
	nodes    map[string]*nodeRecord
	approved *urlList
	pending  *urlList

	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Registry.
type Option func(*Registry)

// WithNotifier sets the notifier that receives committed events.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) {
		r.notifier = n
	}
}

// WithClock sets the wall clock used to stamp events and node records.
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithTracer overrides the tracer. Default: the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

func newRegistry(opts ...Option) *Registry {
	r := &Registry{
		managers: make(map[Principal]struct{}),
		nodes:    make(map[string]*nodeRecord),
		approved: newURLList(),
		pending:  newURLList(),
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(TracerName)
	}
	return r
}

// New creates a registry owned by owner. The owner also becomes the first
// explicit manager. A registry-created event is sent to the notifier.
func New(ctx context.Context, owner Principal, opts ...Option) (*Registry, error) {
	r := newRegistry(opts...)

	ctx, span := r.start(ctx, "New", owner)
	if !owner.Valid() {
		err := newError(CodeInvalidArgument, "New", string(owner), "owner must be a valid identity")
		end(span, err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.commit(ctx, event.Event{
		Kind:    event.KindRegistryCreated,
		Actor:   string(owner),
		Subject: string(owner),
	})
	end(span, err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// commit stamps ev, applies it and notifies. Callers hold r.mu and have
// already validated ev against the current state.
func (r *Registry) commit(ctx context.Context, ev event.Event) error {
	ev.At = r.now().UTC()
	if err := r.apply(ev); err != nil {
		return err
	}
	if r.notifier == nil {
		return nil
	}
	if err := r.notifier.Notify(ctx, ev); err != nil {
		r.logger.Error("notify failed", "kind", ev.Kind, "url", ev.URL, "subject", ev.Subject, "error", err)
	}
	return nil
}

func (r *Registry) start(ctx context.Context, op string, caller Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	attrs = append(attrs, attribute.String("registry.caller", string(caller)))
	return r.tracer.Start(ctx, "registry."+op, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
	}
	span.End()
}

// Snapshot returns a copy of the whole registry state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Owner:    r.owner,
		Managers: r.managersLocked(),
		App:      r.app,
		Approved: r.approved.Snapshot(),
		Pending:  r.pending.Snapshot(),
		Nodes:    make([]NodeInfo, 0, len(r.nodes)),
	}
	for url, rec := range r.nodes {
		s.Nodes = append(s.Nodes, rec.info(url))
	}
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].URL < s.Nodes[j].URL })
	return s
}

func (rec *nodeRecord) info(url string) NodeInfo {
	return NodeInfo{
		URL:      url,
		Approved: rec.approved,
		AddedBy:  rec.addedBy,
		AddedAt:  rec.addedAt,
	}
}
