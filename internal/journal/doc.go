// Package journal provides SQLite-backed storage for completed dispatches.
//
// The journal is an append-only diagnostic log. Each row records one
// dispatch: its ID, sequence number, action type and source, the frozen
// payload as canonical JSON, the stores that handled it and the error, if
// any. It is never read back into stores.
//
// # Ordering
//
// Rows are returned in insertion order (the autoincrement id), which is the
// order dispatches completed. The per-process seq restarts with every run,
// so it is recorded but not used for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
