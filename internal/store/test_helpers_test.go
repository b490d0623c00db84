package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/noderegistry/internal/event"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sealChain seals events into a chain starting at seq 1 with ids evt-1...
func sealChain(t *testing.T, events ...event.Event) []event.Event {
	t.Helper()
	gen := event.NewSequenceGenerator("")
	prev := event.GenesisHash
	out := make([]event.Event, len(events))
	for i, ev := range events {
		if ev.At.IsZero() {
			ev.At = testEpoch.Add(time.Duration(i) * time.Second)
		}
		sealed, err := event.Seal(ev, int64(i+1), gen.Generate(), prev)
		if err != nil {
			t.Fatalf("Seal(%d) failed: %v", i+1, err)
		}
		out[i] = sealed
		prev = sealed.Hash
	}
	return out
}

// appendAll writes events in order, failing the test on the first error.
func appendAll(t *testing.T, s *Store, events []event.Event) {
	t.Helper()
	for _, ev := range events {
		if err := s.AppendEvent(t.Context(), ev); err != nil {
			t.Fatalf("AppendEvent(%d) failed: %v", ev.Seq, err)
		}
	}
}

// sampleLog is a small registry history touching every node event kind.
func sampleLog(t *testing.T) []event.Event {
	t.Helper()
	return sealChain(t,
		event.Event{Kind: event.KindRegistryCreated, Actor: "owner", Subject: "owner"},
		event.Event{Kind: event.KindNodeAdded, Actor: "stranger", URL: "https://a"},
		event.Event{Kind: event.KindNodeAdded, Actor: "owner", URL: "https://b", Approved: true},
		event.Event{Kind: event.KindNodeStatusChanged, Actor: "owner", URL: "https://a", Approved: true},
		event.Event{Kind: event.KindManagerAdded, Actor: "owner", Subject: "m1"},
		event.Event{Kind: event.KindNodeRemoved, Actor: "m1", URL: "https://a"},
		event.Event{Kind: event.KindNodeAdded, Actor: "m1", URL: "https://a", Approved: true},
	)
}
