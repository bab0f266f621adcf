// Package storage provides persistence backends for the credential pool.
//
// Two implementations of credential.Store are available:
//
//   - MemoryStore: in-process, for tests and single-run tools.
//   - SQLiteStore: durable storage with WAL mode.
//
// Activation is the critical section: "deactivate every sibling in the
// (provider, tier) group, then activate the chosen credential" happens
// under one mutex in the memory store and inside one transaction in the
// SQLite store, so no interleaving can observe two ACTIVE credentials in
// a group.
package storage
