package store

import (
	"errors"
	"testing"

	"github.com/roach88/noderegistry/internal/event"
)

func TestAppendEvent_Basic(t *testing.T) {
	s := createTestStore(t)
	log := sampleLog(t)
	appendAll(t, s, log[:1])

	var kind, actor, payload, prevHash, hash, recordedAt string
	var url *string
	err := s.db.QueryRow(`
		SELECT kind, actor, url, payload, prev_hash, hash, recorded_at
		FROM events WHERE seq = 1
	`).Scan(&kind, &actor, &url, &payload, &prevHash, &hash, &recordedAt)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if kind != "registry-created" {
		t.Errorf("kind = %q, want registry-created", kind)
	}
	if actor != "owner" {
		t.Errorf("actor = %q, want owner", actor)
	}
	if url != nil {
		t.Errorf("url = %q, want NULL for identity events", *url)
	}
	wantPayload := `{"actor":"owner","at":"2024-01-01T00:00:00Z","kind":"registry-created","subject":"owner"}`
	if payload != wantPayload {
		t.Errorf("payload = %s, want %s", payload, wantPayload)
	}
	if prevHash != event.GenesisHash {
		t.Errorf("prev_hash = %q, want genesis", prevHash)
	}
	if hash != log[0].Hash {
		t.Errorf("hash = %q, want %q", hash, log[0].Hash)
	}
	if recordedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("recorded_at = %q", recordedAt)
	}
}

func TestAppendEvent_NodeEventsCarryURL(t *testing.T) {
	s := createTestStore(t)
	appendAll(t, s, sampleLog(t)[:2])

	var url string
	if err := s.db.QueryRow(`SELECT url FROM events WHERE seq = 2`).Scan(&url); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if url != "https://a" {
		t.Errorf("url = %q, want https://a", url)
	}
}

func TestAppendEvent_RejectsSeqGap(t *testing.T) {
	s := createTestStore(t)
	log := sampleLog(t)
	appendAll(t, s, log[:1])

	err := s.AppendEvent(t.Context(), log[2])
	if !errors.Is(err, ErrSeqConflict) {
		t.Fatalf("AppendEvent(seq 3 after 1) = %v, want ErrSeqConflict", err)
	}
}

func TestAppendEvent_RejectsReplay(t *testing.T) {
	s := createTestStore(t)
	log := sampleLog(t)
	appendAll(t, s, log[:2])

	err := s.AppendEvent(t.Context(), log[1])
	if !errors.Is(err, ErrSeqConflict) {
		t.Fatalf("AppendEvent(duplicate) = %v, want ErrSeqConflict", err)
	}
}

func TestAppendEvent_RejectsFirstEventNotAtOne(t *testing.T) {
	s := createTestStore(t)
	err := s.AppendEvent(t.Context(), sampleLog(t)[1])
	if !errors.Is(err, ErrSeqConflict) {
		t.Fatalf("AppendEvent on empty log = %v, want ErrSeqConflict", err)
	}
}

func TestAppendEvent_RejectsBrokenLink(t *testing.T) {
	s := createTestStore(t)
	log := sampleLog(t)
	appendAll(t, s, log[:1])

	forged, err := event.Seal(log[1], 2, "evt-2", "not-the-tail")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	err = s.AppendEvent(t.Context(), forged)
	if !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("AppendEvent(bad prev_hash) = %v, want ErrChainMismatch", err)
	}
}

func TestAppendEvent_RejectsTamperedHash(t *testing.T) {
	s := createTestStore(t)
	log := sampleLog(t)

	tampered := log[0]
	tampered.Subject = "mallory"
	err := s.AppendEvent(t.Context(), tampered)
	if !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("AppendEvent(tampered) = %v, want ErrChainMismatch", err)
	}

	n, err := s.CountEvents(t.Context())
	if err != nil {
		t.Fatalf("CountEvents failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountEvents() = %d after rejected append, want 0", n)
	}
}
