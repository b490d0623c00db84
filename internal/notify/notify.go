// Package notify provides event notifiers for the registry: fan-out,
// structured logging, and in-memory recording.
//
// Every type here satisfies registry.Notifier structurally; the package only
// depends on the event model.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/noderegistry/internal/event"
)

// Notifier receives committed events.
type Notifier interface {
	Notify(ctx context.Context, ev event.Event) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev event.Event) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, ev event.Event) error {
	return f(ctx, ev)
}

// Fanout delivers each event to every subscriber in registration order.
// A failing subscriber does not stop delivery to the rest; all failures are
// joined into the returned error.
type Fanout struct {
	mu   sync.RWMutex
	subs []Notifier
}

// NewFanout creates a fan-out over the given notifiers. Nil entries are
// ignored.
func NewFanout(subs ...Notifier) *Fanout {
	f := &Fanout{}
	for _, s := range subs {
		f.Add(s)
	}
	return f
}

// Add registers another subscriber.
func (f *Fanout) Add(n Notifier) {
	if n == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, n)
}

// Len returns the number of subscribers.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Notify delivers ev to every subscriber in order and joins their errors.
func (f *Fanout) Notify(ctx context.Context, ev event.Event) error {
	f.mu.RLock()
	subs := make([]Notifier, len(f.subs))
	copy(subs, f.subs)
	f.mu.RUnlock()

	var errs []error
	for i, s := range subs {
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
