// Package store is the SQLite run ledger.
//
// It records every suite run (one row per run plus one row per scenario
// result) and every mutation pass, so the before/after pair handed to a
// healing tool can be reconstructed later: which drift was active, which
// scenarios failed and on which locator.
//
// # Ordering
//
// Rows are ordered by seq, a logical clock shared by runs and mutations,
// never by wall time. On Open the clock resumes from the highest stored
// seq so a reopened ledger keeps a single total order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
