// Package store provides the in-memory message/thread cache at the heart of
// threadloaf: a time-windowed record of recently observed chat messages per
// channel, plus metadata for forum-style threads.
//
// # Data Model
//
// Two mappings, guarded by one lock:
//
//   - channel id → []StoredMessage, in arrival order
//   - thread id → ThreadMeta
//
// The keyspaces are independent but correlated: a forum thread is a channel
// for message purposes, so a thread's messages live in the message mapping
// under the thread's own id.
//
// Both record types are immutable once inserted. Timestamps are epoch
// milliseconds and are treated as opaque past instants; out-of-order
// insertion is fine and never rejected.
//
// # Eviction
//
// Messages expire against a single TTL (DefaultMessageTTL, 24h). Three
// things prune:
//
//   - AddMessage prunes the channel it just appended to, so an actively
//     written channel never accumulates stale entries. The new message
//     itself is fair game: inserting an already-expired message is a
//     self-cancelling no-op.
//   - PruneChannel prunes one channel on demand.
//   - PruneAll sweeps everything under one clock snapshot, then reclaims
//     every thread whose channel has no live messages left, regardless of
//     the thread's age. Thread survival is derived purely from message
//     presence; there is no thread TTL.
//
// A channel key never maps to an empty sequence: when the last message
// expires, the key is deleted in the same step. "Channel is present" is
// therefore equivalent to "channel has at least one live message."
//
// # Failure Semantics
//
// There are none. Every operation is total: unknown ids yield empty results
// or no-ops, malformed records are stored as-is, and nothing returns an
// error. The store is pure state management, not a validation boundary.
//
// # Concurrency
//
// The original design assumed a single-threaded event loop; in Go the same
// atomicity is provided by one RWMutex covering both mappings. Operations
// never block on anything but the lock and run in time linear to the
// affected channel (or the whole store, for PruneAll).
//
// # Testing
//
// Construct with WithClock to drive expiry deterministically:
//
//	now := time.Unix(0, 0)
//	s := store.New(store.WithClock(func() time.Time { return now }))
package store
