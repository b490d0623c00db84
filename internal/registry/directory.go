package registry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/noderegistry/internal/event"
)

// AddNode submits url to the directory. Any caller may submit; the node is
// approved immediately when the caller is a manager and pending otherwise.
// Returns the approval flag assigned.
func (r *Registry) AddNode(ctx context.Context, caller Principal, url string) (approved bool, err error) {
	const op = "AddNode"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.url", url))
	defer func() { end(span, err) }()

	if url == "" {
		return false, newError(CodeInvalidArgument, op, url, "url must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[url]; ok {
		return false, newError(CodeAlreadyExists, op, url, "node already tracked")
	}

	approved = r.hasManagerCapability(caller)
	span.SetAttributes(attribute.Bool("registry.approved", approved))
	err = r.commit(ctx, event.Event{
		Kind:     event.KindNodeAdded,
		Actor:    string(caller),
		URL:      url,
		Approved: approved,
	})
	return approved, err
}

// ApproveNode moves a pending url to the approved list. Manager only.
func (r *Registry) ApproveNode(ctx context.Context, caller Principal, url string) (err error) {
	const op = "ApproveNode"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.url", url))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasManagerCapability(caller) {
		return permissionDenied(op, caller, "a manager")
	}
	rec, ok := r.nodes[url]
	if !ok {
		return newError(CodeNotFound, op, url, "node not tracked")
	}
	if rec.approved {
		return newError(CodeAlreadyApproved, op, url, "node already approved")
	}
	return r.approveLocked(ctx, caller, url)
}

// ApproveNodes approves every listed url that exists and is still pending,
// in input order. Unknown and already-approved urls are skipped without
// error; the only failure is a caller without manager capability. Returns
// the urls that were approved by this call.
func (r *Registry) ApproveNodes(ctx context.Context, caller Principal, urls []string) (applied []string, err error) {
	const op = "ApproveNodes"
	ctx, span := r.start(ctx, op, caller, attribute.Int("registry.batch_size", len(urls)))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasManagerCapability(caller) {
		return nil, permissionDenied(op, caller, "a manager")
	}

	applied = make([]string, 0, len(urls))
	for _, url := range urls {
		rec, ok := r.nodes[url]
		if !ok || rec.approved {
			r.logger.Debug("approve skipped", "url", url, "tracked", ok)
			continue
		}
		if err := r.approveLocked(ctx, caller, url); err != nil {
			return applied, err
		}
		applied = append(applied, url)
	}
	span.SetAttributes(attribute.Int("registry.applied", len(applied)))
	return applied, nil
}

func (r *Registry) approveLocked(ctx context.Context, caller Principal, url string) error {
	return r.commit(ctx, event.Event{
		Kind:     event.KindNodeStatusChanged,
		Actor:    string(caller),
		URL:      url,
		Approved: true,
	})
}

// RemoveNode erases url from the directory, whichever list holds it.
// Manager only. The url may be added again later as a fresh record.
func (r *Registry) RemoveNode(ctx context.Context, caller Principal, url string) (err error) {
	const op = "RemoveNode"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.url", url))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasManagerCapability(caller) {
		return permissionDenied(op, caller, "a manager")
	}
	if _, ok := r.nodes[url]; !ok {
		return newError(CodeNotFound, op, url, "node not tracked")
	}
	return r.removeLocked(ctx, caller, url)
}

// RemoveNodes removes every listed url that exists, skipping unknown ones.
// Returns the urls removed by this call.
func (r *Registry) RemoveNodes(ctx context.Context, caller Principal, urls []string) (removed []string, err error) {
	const op = "RemoveNodes"
	ctx, span := r.start(ctx, op, caller, attribute.Int("registry.batch_size", len(urls)))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasManagerCapability(caller) {
		return nil, permissionDenied(op, caller, "a manager")
	}

	removed = make([]string, 0, len(urls))
	for _, url := range urls {
		if _, ok := r.nodes[url]; !ok {
			r.logger.Debug("remove skipped", "url", url)
			continue
		}
		if err := r.removeLocked(ctx, caller, url); err != nil {
			return removed, err
		}
		removed = append(removed, url)
	}
	span.SetAttributes(attribute.Int("registry.applied", len(removed)))
	return removed, nil
}

func (r *Registry) removeLocked(ctx context.Context, caller Principal, url string) error {
	return r.commit(ctx, event.Event{
		Kind:  event.KindNodeRemoved,
		Actor: string(caller),
		URL:   url,
	})
}

// GetNodeInfo returns the record for url or a CodeNotFound error.
func (r *Registry) GetNodeInfo(url string) (NodeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.nodes[url]
	if !ok {
		return NodeInfo{}, newError(CodeNotFound, "GetNodeInfo", url, "node not tracked")
	}
	return rec.info(url), nil
}

// ApprovedNodeURLs returns the approved list in its current order.
func (r *Registry) ApprovedNodeURLs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.approved.Snapshot()
}

// PendingNodeURLs returns the pending list in its current order.
func (r *Registry) PendingNodeURLs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending.Snapshot()
}

// ApprovedNodeCount returns the length of the approved list in O(1).
func (r *Registry) ApprovedNodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.approved.Len()
}

// PendingNodeCount returns the length of the pending list in O(1).
func (r *Registry) PendingNodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending.Len()
}
