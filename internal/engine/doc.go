// Package engine binds the in-memory registry to its durable event log.
//
// An Engine owns a store.Store and, once initialized, a registry.Registry.
// Opening an engine replays the stored log into a fresh registry; every
// mutation made afterwards flows through the engine's recorder, which is
// the registry's notifier:
//
//  1. the registry validates the call and applies it in memory
//  2. the recorder stamps the event with the next seq from Clock, an id
//     from the IDGenerator and the hash linking it to the previous event
//  3. the sealed event is appended to the store
//  4. extra notifiers (logging, tests) receive the sealed event
//
// The registry calls its notifier while holding its own lock, so the
// recorder sees events strictly in commit order and needs no queue.
//
// If an append fails, memory is ahead of the log. The engine then refuses
// further mutations with ErrDiverged; reopening rebuilds state from what
// was durably recorded.
//
// # Replay
//
// Replay is the same code path as live execution minus authorization:
// registry.Restore applies each logged event through the state transition
// the live operation used. Verify replays the log twice into independent
// registries and checks that both, and the live registry, agree.
package engine
