package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/noderegistry/internal/event"
)

const selectEvents = `SELECT seq, id, prev_hash, hash, payload FROM events`

// ReadEvents returns every event with seq > afterSeq in commit order.
// Pass 0 to read the whole log.
//
// Returns an empty slice (not nil) if there are no such events.
func (s *Store) ReadEvents(ctx context.Context, afterSeq int64) ([]event.Event, error) {
	return s.queryEvents(ctx, selectEvents+`
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
}

// ReadEventsByKind returns every event of the given kind in commit order.
func (s *Store) ReadEventsByKind(ctx context.Context, kind event.Kind) ([]event.Event, error) {
	return s.queryEvents(ctx, selectEvents+`
		WHERE kind = ?
		ORDER BY seq ASC
	`, string(kind))
}

// ReadEventsForURL returns the history of one node url in commit order:
// every add, status change and removal, across re-additions.
func (s *Store) ReadEventsForURL(ctx context.Context, url string) ([]event.Event, error) {
	return s.queryEvents(ctx, selectEvents+`
		WHERE url = ?
		ORDER BY seq ASC
	`, url)
}

// LastEvent returns the tail of the log. ok is false when the log is empty.
func (s *Store) LastEvent(ctx context.Context) (ev event.Event, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, selectEvents+`
		ORDER BY seq DESC
		LIMIT 1
	`)
	ev, err = scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, false, nil
	}
	if err != nil {
		return event.Event{}, false, err
	}
	return ev, true, nil
}

// CountEvents returns the number of events in the log.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// VerifyChain reads the whole log and checks seq continuity and the hash
// chain. A broken chain is reported as *event.ChainError.
func (s *Store) VerifyChain(ctx context.Context) error {
	events, err := s.ReadEvents(ctx, 0)
	if err != nil {
		return err
	}
	return event.VerifyChain(events)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		seq                     int64
		id, prevHash, hash, raw string
	)
	if err := row.Scan(&seq, &id, &prevHash, &hash, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	return event.Decode(seq, id, prevHash, hash, raw)
}
