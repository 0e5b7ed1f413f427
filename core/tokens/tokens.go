package tokens

import (
	"sync"

	"github.com/leofalp/chatlog/providers/ai"
)

const (
	// DefaultCharactersPerToken suits English text mixed with code; BPE
	// tokenizers average 3.5-4.5 characters per token.
	DefaultCharactersPerToken = 4.0

	// messageOverhead is charged once per message for role markers and
	// JSON framing.
	messageOverhead = 20

	defaultSmoothingFactor = 0.3
)

// CharCounter estimates token counts from character counts. It satisfies
// history.TokenCounter and never fails.
//
// The ratio can be calibrated against real usage reported by a provider with
// [CharCounter.Calibrate]; the first observation replaces the default and
// later ones are blended with an exponential moving average.
type CharCounter struct {
	mu                 sync.RWMutex
	charactersPerToken float64
	smoothingFactor    float64
	observations       int
}

// Option configures a CharCounter.
type Option func(*CharCounter)

// WithCharactersPerToken sets the initial ratio. Values <= 0 are ignored.
func WithCharactersPerToken(ratio float64) Option {
	return func(c *CharCounter) {
		if ratio > 0 {
			c.charactersPerToken = ratio
		}
	}
}

// NewCharCounter returns a counter using [DefaultCharactersPerToken].
func NewCharCounter(opts ...Option) *CharCounter {
	c := &CharCounter{
		charactersPerToken: DefaultCharactersPerToken,
		smoothingFactor:    defaultSmoothingFactor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountMessages returns the estimated token count of messages, rounded up.
func (c *CharCounter) CountMessages(messages []ai.Message) (int, error) {
	c.mu.RLock()
	ratio := c.charactersPerToken
	c.mu.RUnlock()

	return int(float64(CharCount(messages))/ratio) + 1, nil
}

// Ratio returns the current characters-per-token ratio.
func (c *CharCounter) Ratio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.charactersPerToken
}

// Calibrate adjusts the ratio from the token count a provider actually
// charged for messages. Non-positive counts and empty batches are ignored.
func (c *CharCounter) Calibrate(messages []ai.Message, actualTokens int64) {
	if actualTokens <= 0 {
		return
	}
	characters := CharCount(messages)
	if characters == 0 {
		return
	}
	observed := float64(characters) / float64(actualTokens)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.observations++
	if c.observations == 1 {
		c.charactersPerToken = observed
		return
	}
	c.charactersPerToken = c.smoothingFactor*observed + (1.0-c.smoothingFactor)*c.charactersPerToken
}

// CharCount returns the number of bytes of text a tokenizer would see for
// messages: content, tool call names and arguments, tool result ids and
// names, plus a fixed overhead per message.
func CharCount(messages []ai.Message) int {
	total := 0
	for _, msg := range messages {
		total += messageCharCount(msg)
	}
	return total
}

func messageCharCount(msg ai.Message) int {
	count := len(msg.ContentOrEmpty())
	for _, call := range msg.ToolCalls {
		count += len(call.Function.Name)
		count += len(call.Function.Arguments)
	}
	if msg.ToolCallID != nil {
		count += len(*msg.ToolCallID)
	}
	count += len(msg.Name)
	return count + messageOverhead
}
