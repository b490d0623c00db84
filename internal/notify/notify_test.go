package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/noderegistry/internal/event"
)

func nodeAdded(url string) event.Event {
	return event.Event{Kind: event.KindNodeAdded, Actor: "alice", URL: url, Approved: true}
}

func TestFanout_DeliversInOrder(t *testing.T) {
	var order []string
	a := Func(func(context.Context, event.Event) error { order = append(order, "a"); return nil })
	b := Func(func(context.Context, event.Event) error { order = append(order, "b"); return nil })

	f := NewFanout(a, nil, b)
	assert.Equal(t, 2, f.Len())

	require.NoError(t, f.Notify(context.Background(), nodeAdded("https://a")))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestFanout_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	failing := NewRecorder()
	failing.FailWith(boom)
	healthy := NewRecorder()

	f := NewFanout(failing, healthy)
	err := f.Notify(context.Background(), nodeAdded("https://a"))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "subscriber 0")
	assert.Len(t, healthy.Events(), 1, "healthy subscriber still receives the event")
}

func TestFanout_Empty(t *testing.T) {
	f := NewFanout()
	assert.NoError(t, f.Notify(context.Background(), nodeAdded("https://a")))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	_, ok := r.Last()
	assert.False(t, ok)

	ctx := context.Background()
	require.NoError(t, r.Notify(ctx, nodeAdded("https://a")))
	require.NoError(t, r.Notify(ctx, event.Event{Kind: event.KindNodeRemoved, URL: "https://a"}))

	assert.Equal(t, []event.Kind{event.KindNodeAdded, event.KindNodeRemoved}, r.Kinds())
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, event.KindNodeRemoved, last.Kind)

	events := r.Events()
	events[0].URL = "mutated"
	assert.Equal(t, "https://a", r.Events()[0].URL, "Events returns a copy")

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestLogger_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewLogger(l, slog.LevelInfo)

	ev := nodeAdded("https://a")
	ev.Seq = 7
	require.NoError(t, n.Notify(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, "registry event")
	assert.Contains(t, out, "kind=node-added")
	assert.Contains(t, out, "seq=7")
	assert.Contains(t, out, "url=https://a")
	assert.Contains(t, out, "approved=true")
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	n := NewLogger(l, slog.LevelDebug)

	require.NoError(t, n.Notify(context.Background(), nodeAdded("https://a")))
	assert.Empty(t, buf.String())
}
