// Package store provides SQLite-backed history of template validation runs.
//
// Each run records one validated template: its name, the fingerprint of its
// argument values, whether it passed, and the full report as JSON. The log is
// append-only.
//
// # Ordering
//
//   - Runs are ordered by seq INTEGER (logical clock), never timestamps
//   - All queries use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// # Idempotency
//
//   - Run IDs are primary keys; WriteRun with an existing ID is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed by param.FingerprintFields using canonical JSON
// and SHA-256 with domain separation.
package store
