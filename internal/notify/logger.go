package notify

import (
	"context"
	"log/slog"

	"github.com/roach88/noderegistry/internal/event"
)

// Logger writes one structured log line per event.
type Logger struct {
	log   *slog.Logger
	level slog.Level
}

// NewLogger logs events to l at the given level.
func NewLogger(l *slog.Logger, level slog.Level) *Logger {
	return &Logger{log: l, level: level}
}

// Notify writes one log line for ev. It never fails.
func (n *Logger) Notify(ctx context.Context, ev event.Event) error {
	attrs := []slog.Attr{
		slog.String("kind", string(ev.Kind)),
		slog.Int64("seq", ev.Seq),
		slog.String("actor", ev.Actor),
	}
	switch ev.Kind {
	case event.KindNodeAdded, event.KindNodeStatusChanged:
		attrs = append(attrs, slog.String("url", ev.URL), slog.Bool("approved", ev.Approved))
	case event.KindNodeRemoved:
		attrs = append(attrs, slog.String("url", ev.URL))
	case event.KindMetadataUpdated:
		attrs = append(attrs, slog.String("version", ev.Version))
	default:
		attrs = append(attrs, slog.String("subject", ev.Subject))
	}
	n.log.LogAttrs(ctx, n.level, "registry event", attrs...)
	return nil
}
