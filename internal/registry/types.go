package registry

import (
	"context"
	"time"

	"github.com/roach88/noderegistry/internal/event"
)

// Principal is an opaque caller identity supplied by the host.
// The empty principal is the null identity.
type Principal string

// Valid reports whether p is a usable identity: anything but the null
// identity.
func (p Principal) Valid() bool {
	return p != ""
}

// AppInfo is the current application release record.
type AppInfo struct {
	Version       string `json:"version"`
	DownloadLink  string `json:"download_link"`
	UpdateContent string `json:"update_content"`
}

// NodeInfo describes one tracked node url.
type NodeInfo struct {
	URL      string    `json:"url"`
	Approved bool      `json:"approved"`
	AddedBy  Principal `json:"added_by"`
	AddedAt  time.Time `json:"added_at"`
}

// Notifier receives one event per committed mutation.
type Notifier interface {
	Notify(ctx context.Context, ev event.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev event.Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev event.Event) error {
	return f(ctx, ev)
}

// Snapshot is a point-in-time copy of the whole registry.
// Managers and Nodes are sorted; Approved and Pending keep list order.
type Snapshot struct {
	Owner    Principal   `json:"owner"`
	Managers []Principal `json:"managers"`
	App      AppInfo     `json:"app"`
	Approved []string    `json:"approved"`
	Pending  []string    `json:"pending"`
	Nodes    []NodeInfo  `json:"nodes"`
}
