package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/noderegistry/internal/event"
)

var (
	// ErrSeqConflict is returned when an appended event's seq does not
	// directly follow the last stored event.
	ErrSeqConflict = errors.New("event seq does not extend the log")

	// ErrChainMismatch is returned when an appended event's prev_hash does
	// not match the last stored hash, or its own hash does not verify.
	ErrChainMismatch = errors.New("event hash does not extend the chain")
)

// AppendEvent appends a sealed event to the log.
//
// The check against the current tail and the insert run in one
// transaction, so concurrent writers cannot interleave. Events must be
// sealed (see event.Seal) with seq = tail+1 and prev_hash = tail hash.
func (s *Store) AppendEvent(ctx context.Context, ev event.Event) error {
	want, err := event.ComputeHash(ev)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if ev.Hash != want {
		return fmt.Errorf("append event %d: %w: stored hash %q, computed %q", ev.Seq, ErrChainMismatch, ev.Hash, want)
	}

	payload, err := ev.Payload()
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append event: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var (
		tailSeq  int64
		tailHash = event.GenesisHash
	)
	err = tx.QueryRowContext(ctx, `
		SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1
	`).Scan(&tailSeq, &tailHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("append event: read tail: %w", err)
	}

	if ev.Seq != tailSeq+1 {
		return fmt.Errorf("append event %d: %w: tail is %d", ev.Seq, ErrSeqConflict, tailSeq)
	}
	if ev.PrevHash != tailHash {
		return fmt.Errorf("append event %d: %w", ev.Seq, ErrChainMismatch)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events
		(seq, id, kind, actor, url, payload, prev_hash, hash, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Seq,
		ev.ID,
		string(ev.Kind),
		ev.Actor,
		nullableURL(ev),
		payload,
		ev.PrevHash,
		ev.Hash,
		ev.At.UTC().Format(event.TimeFormat),
	)
	if err != nil {
		return fmt.Errorf("append event %d: insert: %w", ev.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append event %d: commit: %w", ev.Seq, err)
	}
	return nil
}

func nullableURL(ev event.Event) sql.NullString {
	switch ev.Kind {
	case event.KindNodeAdded, event.KindNodeStatusChanged, event.KindNodeRemoved:
		return sql.NullString{String: ev.URL, Valid: true}
	default:
		return sql.NullString{}
	}
}
