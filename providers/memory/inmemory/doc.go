// Package inmemory provides a concurrency-safe, slice-backed implementation
// of the [memory.Provider] interface for holding a transcript in process memory.
// It backs the CLI when a transcript is read from a file and is the store of
// choice in tests. The main entry points are [New] and [NewFromMessages].
package inmemory
