// Package storage provides persistence backends for spend tracking.
//
// Two implementations of spend.Store are available:
//
//   - MemoryStore: in-process, for tests and single-run tools.
//   - SQLiteStore: durable storage with WAL mode, suitable for
//     single-instance deployments.
//
// Both guarantee atomic month-record increments under concurrent AddCost
// calls. The memory store serializes with a mutex; the SQLite store uses
// an upsert with in-place increments so the read-modify-write happens
// inside the database.
package storage
