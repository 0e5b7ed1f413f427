// Package tokens provides a dependency-free token estimator for transcripts.
//
// Example usage:
//
//	counter := tokens.NewCharCounter()
//	h := history.New(messages, history.WithTokenCounter(counter))
//	fmt.Println(h.Stats().TotalTokens)
package tokens
