package registry

import (
	"context"
	"fmt"

	"github.com/roach88/noderegistry/internal/event"
)

// Restore rebuilds a registry from a committed event log. Events are applied
// in order without authorization checks and without notifying; the options'
// notifier only sees mutations made after Restore returns.
//
// The first event must be registry-created. An event that does not fit the
// state built so far yields an error wrapping ErrInconsistentLog.
func Restore(ctx context.Context, events []event.Event, opts ...Option) (*Registry, error) {
	r := newRegistry(opts...)

	_, span := r.start(ctx, "Restore", "")
	defer span.End()

	if len(events) == 0 {
		return nil, fmt.Errorf("%w: empty log", ErrInconsistentLog)
	}
	if events[0].Kind != event.KindRegistryCreated {
		return nil, fmt.Errorf("%w: first event is %s, want %s", ErrInconsistentLog, events[0].Kind, event.KindRegistryCreated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		if err := r.apply(ev); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	return r, nil
}

// apply performs the state transition recorded by ev. It is the only code
// that mutates registry state; live operations validate first and then
// apply, Restore applies directly.
func (r *Registry) apply(ev event.Event) error {
	switch ev.Kind {
	case event.KindRegistryCreated:
		if r.owner != "" {
			return inconsistent(ev, "registry already created")
		}
		owner := Principal(ev.Subject)
		if !owner.Valid() {
			return inconsistent(ev, "invalid owner")
		}
		r.owner = owner
		r.managers[owner] = struct{}{}

	case event.KindOwnershipTransferred:
		newOwner := Principal(ev.Subject)
		if !newOwner.Valid() {
			return inconsistent(ev, "invalid new owner")
		}
		r.owner = newOwner

	case event.KindManagerAdded:
		p := Principal(ev.Subject)
		if _, ok := r.managers[p]; ok {
			return inconsistent(ev, "manager already present")
		}
		r.managers[p] = struct{}{}

	case event.KindManagerRemoved:
		p := Principal(ev.Subject)
		if p == r.owner {
			return inconsistent(ev, "owner removed from managers")
		}
		if _, ok := r.managers[p]; !ok {
			return inconsistent(ev, "manager not present")
		}
		delete(r.managers, p)

	case event.KindMetadataUpdated:
		r.app = AppInfo{
			Version:       ev.Version,
			DownloadLink:  ev.DownloadLink,
			UpdateContent: ev.UpdateContent,
		}

	case event.KindNodeAdded:
		if ev.URL == "" {
			return inconsistent(ev, "empty url")
		}
		if _, ok := r.nodes[ev.URL]; ok {
			return inconsistent(ev, "node already tracked")
		}
		r.nodes[ev.URL] = &nodeRecord{
			approved: ev.Approved,
			addedBy:  Principal(ev.Actor),
			addedAt:  ev.At,
		}
		if ev.Approved {
			r.approved.Append(ev.URL)
		} else {
			r.pending.Append(ev.URL)
		}

	case event.KindNodeStatusChanged:
		rec, ok := r.nodes[ev.URL]
		if !ok {
			return inconsistent(ev, "node not tracked")
		}
		if rec.approved {
			return inconsistent(ev, "node already approved")
		}
		r.pending.Remove(ev.URL)
		r.approved.Append(ev.URL)
		rec.approved = true

	case event.KindNodeRemoved:
		rec, ok := r.nodes[ev.URL]
		if !ok {
			return inconsistent(ev, "node not tracked")
		}
		if rec.approved {
			r.approved.Remove(ev.URL)
		} else {
			r.pending.Remove(ev.URL)
		}
		delete(r.nodes, ev.URL)

	default:
		return inconsistent(ev, "unknown kind")
	}
	return nil
}

func inconsistent(ev event.Event, reason string) error {
	return fmt.Errorf("%w: seq %d %s: %s", ErrInconsistentLog, ev.Seq, ev.Kind, reason)
}
