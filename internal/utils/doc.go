// Package utils provides small helpers shared by the chatlog packages:
// rune-aware truncation and title casing for export rendering, JSON
// encoding without HTML escaping, and [Ptr] for taking the address of a
// literal.
package utils
