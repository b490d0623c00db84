package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
)

// VerifyReport summarizes a successful Verify.
type VerifyReport struct {
	Events   int               `json:"events"`
	HeadSeq  int64             `json:"head_seq"`
	HeadHash string            `json:"head_hash"`
	Snapshot registry.Snapshot `json:"snapshot"`
}

// Verify re-reads the whole log and checks that:
//   - the hash chain is intact
//   - two independent replays produce identical state
//   - the replayed state equals the live registry
//
// Any failure is reported as *ReplayError.
func (e *Engine) Verify(ctx context.Context) (*VerifyReport, error) {
	events, err := e.store.ReadEvents(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNotInitialized
	}

	if err := event.VerifyChain(events); err != nil {
		return nil, &ReplayError{Stage: "chain", Message: "hash chain broken", Err: err}
	}

	first, err := registry.Restore(ctx, events)
	if err != nil {
		return nil, &ReplayError{Stage: "restore", Message: "log does not replay", Err: err}
	}
	second, err := registry.Restore(ctx, events)
	if err != nil {
		return nil, &ReplayError{Stage: "restore", Message: "log does not replay", Err: err}
	}

	snap := first.Snapshot()
	if !reflect.DeepEqual(snap, second.Snapshot()) {
		return nil, &ReplayError{Stage: "determinism", Message: "two replays of the same log differ"}
	}

	if live, err := e.Registry(); err == nil {
		if !reflect.DeepEqual(snap, live.Snapshot()) {
			return nil, &ReplayError{Stage: "live", Message: "replayed state differs from live registry"}
		}
	}

	last := events[len(events)-1]
	return &VerifyReport{
		Events:   len(events),
		HeadSeq:  last.Seq,
		HeadHash: last.Hash,
		Snapshot: snap,
	}, nil
}
