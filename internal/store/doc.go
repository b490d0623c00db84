// Package store provides SQLite-backed durable storage for the registry
// event log.
//
// The log is a single append-only table of events. Each row carries the
// event's logical sequence number, its UUIDv7 id, the stored payload and
// the hash that chains it to the previous row.
//
// # Invariants
//
//   - seq starts at 1 and has no gaps; AppendEvent rejects anything else
//   - prev_hash of row n equals hash of row n-1 (empty for row 1)
//   - rows are never updated or deleted
//   - all reads ORDER BY seq ASC, so replays see commit order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Path ":memory:" opens a private in-memory log, used by the scenario
// harness and tests.
package store
