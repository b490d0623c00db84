package registry

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/noderegistry/internal/event"
)

// hasManagerCapability is the single manager predicate: explicit
// membership or ownership. Callers hold r.mu.
func (r *Registry) hasManagerCapability(addr Principal) bool {
	if addr == "" {
		return false
	}
	if addr == r.owner {
		return true
	}
	_, ok := r.managers[addr]
	return ok
}

// IsManager reports whether addr may approve and remove nodes.
// The owner is always a manager.
func (r *Registry) IsManager(addr Principal) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasManagerCapability(addr)
}

// Owner returns the current owner.
func (r *Registry) Owner() Principal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// Managers returns the explicit manager set, sorted. The owner appears only
// if it was explicitly added.
func (r *Registry) Managers() []Principal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managersLocked()
}

func (r *Registry) managersLocked() []Principal {
	out := make([]Principal, 0, len(r.managers))
	for p := range r.managers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransferOwnership hands ownership to newOwner. Only the current owner may
// call it. The previous owner loses owner capability immediately; it keeps
// explicit manager membership if it had one.
func (r *Registry) TransferOwnership(ctx context.Context, caller, newOwner Principal) (err error) {
	const op = "TransferOwnership"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.subject", string(newOwner)))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return permissionDenied(op, caller, "the owner")
	}
	if !newOwner.Valid() {
		return newError(CodeInvalidArgument, op, string(newOwner), "new owner must be a valid identity")
	}

	r.logger.Info("ownership transferred", "from", r.owner, "to", newOwner)
	return r.commit(ctx, event.Event{
		Kind:    event.KindOwnershipTransferred,
		Actor:   string(caller),
		Subject: string(newOwner),
	})
}

// AddManager grants manager capability to addr. Owner only.
func (r *Registry) AddManager(ctx context.Context, caller, addr Principal) (err error) {
	const op = "AddManager"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.subject", string(addr)))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return permissionDenied(op, caller, "the owner")
	}
	if !addr.Valid() {
		return newError(CodeInvalidArgument, op, string(addr), "manager must be a valid identity")
	}
	if _, ok := r.managers[addr]; ok {
		return newError(CodeAlreadyExists, op, string(addr), "already a manager")
	}

	return r.commit(ctx, event.Event{
		Kind:    event.KindManagerAdded,
		Actor:   string(caller),
		Subject: string(addr),
	})
}

// RemoveManager revokes explicit manager membership. Owner only. Removing
// the owner always fails with CodeInvariantViolation, whether or not the
// owner is an explicit member.
func (r *Registry) RemoveManager(ctx context.Context, caller, addr Principal) (err error) {
	const op = "RemoveManager"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.subject", string(addr)))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return permissionDenied(op, caller, "the owner")
	}
	if addr == r.owner {
		return newError(CodeInvariantViolation, op, string(addr), "the owner cannot lose manager capability")
	}
	if _, ok := r.managers[addr]; !ok {
		return newError(CodeNotFound, op, string(addr), "not a manager")
	}

	return r.commit(ctx, event.Event{
		Kind:    event.KindManagerRemoved,
		Actor:   string(caller),
		Subject: string(addr),
	})
}
