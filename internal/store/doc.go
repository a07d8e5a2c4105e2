// Package store provides SQLite-backed persistence for scenes and the log of
// batches applied to them.
//
// Two tables:
//   - scenes: the latest snapshot per scene name, with its content
//     fingerprint and the seq of the last job that produced it
//   - batches: an append-only log of every action batch and reconcile batch,
//     with its per-item results, keyed by (scene, seq)
//
// # Ordering
//
// All ordering uses the engine's logical seq, never timestamps. Queries
// order by seq ASC so reads are deterministic.
//
// # Idempotency
//
// Saving a scene whose fingerprint has not changed only advances its seq.
// Appending a batch that already exists for (scene, seq) is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
