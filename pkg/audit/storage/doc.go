// Package storage provides persistence backends for the audit trail.
//
// MemoryStorage keeps entries in-process for tests and ephemeral runs;
// SQLiteStorage persists them durably. Both are append-only.
package storage
