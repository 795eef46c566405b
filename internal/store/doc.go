// Package store implements the shared market-state store.
//
// The store is the single source of truth read by every consumer:
//   - Keyed ticker and matrix records with shallow field-level merges
//   - Records created lazily on first update, zero-valued defaults
//   - LastUpdated stamped on every successful merge
//   - Concurrent-safe for independent producers; merges to one symbol are
//     linearized under the store lock
//   - A watch channel so a UI layer can react to changes
//
// Reads never block and never trigger a fetch; pull is the caller's
// responsibility.
package store
