// Package memory defines the Provider interface for transcript stores.
// A store holds the messages of one conversation and hands out snapshots of
// them; the history engine wraps such a snapshot through history.Load.
// Read methods take a context and return errors so that database-backed
// implementations can surface failures instead of silently swallowing them.
// The bundled implementations live in the sibling packages
// [github.com/leofalp/chatlog/providers/memory/inmemory] and
// [github.com/leofalp/chatlog/providers/memory/pgmemory].
package memory
