// Package pgmemory provides a PostgreSQL-backed implementation of the
// [memory.Provider] interface for persisting transcripts across process
// restarts. Each [PgMemory] instance is scoped to a single session and uses
// pgx/v5 for pool-safe queries.
//
// Messages are stored whole as JSONB, so a transcript imported from a file
// keeps its passthrough fields, explicit nulls and malformed tool calls after
// a round trip through the database. JSONB normalizes whitespace and object
// key order inside those values.
//
// The main entry point is [New], which returns a [PgMemory] bound to a
// specific session. Use [PgMemory.EnsureSchema] to create the table during
// development.
package pgmemory
