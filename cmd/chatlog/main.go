// Command chatlog queries, summarizes and exports chat-completion transcripts
// read from files or from a PostgreSQL session.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
