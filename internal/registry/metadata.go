package registry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/roach88/noderegistry/internal/event"
)

// AppInfo returns the current release record. Fields are empty until the
// first UpdateAppInfo.
func (r *Registry) AppInfo() AppInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app
}

// UpdateAppInfo overwrites all three release fields in one commit.
// Owner only. Fields are arbitrary bytes and may be empty.
func (r *Registry) UpdateAppInfo(ctx context.Context, caller Principal, info AppInfo) (err error) {
	const op = "UpdateAppInfo"
	ctx, span := r.start(ctx, op, caller, attribute.String("registry.app.version", info.Version))
	defer func() { end(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return permissionDenied(op, caller, "the owner")
	}

	return r.commit(ctx, event.Event{
		Kind:          event.KindMetadataUpdated,
		Actor:         string(caller),
		Version:       info.Version,
		DownloadLink:  info.DownloadLink,
		UpdateContent: info.UpdateContent,
	})
}
