package history

import (
	"context"
	"fmt"
	"time"

	"github.com/leofalp/chatlog/core/parse"
	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/memory"
	"github.com/leofalp/chatlog/providers/observability"
)

// TokenCounter estimates the token cost of a batch of messages.
// The engine always calls it with a single-message batch.
type TokenCounter interface {
	CountMessages(messages []ai.Message) (int, error)
}

// TokenCounterFunc adapts an ordinary function to [TokenCounter].
type TokenCounterFunc func(messages []ai.Message) (int, error)

// CountMessages calls f(messages).
func (f TokenCounterFunc) CountMessages(messages []ai.Message) (int, error) {
	return f(messages)
}

// History is a read-only view over a transcript. It borrows the message
// slice it is given and never writes to it; every method recomputes its
// result from scratch and returns values the caller owns.
//
// A History is safe for concurrent use as long as nobody mutates the
// underlying slice. An injected [TokenCounter] is called synchronously from
// the calling goroutine, so its own thread safety is the caller's concern.
type History struct {
	messages []ai.Message
	counter  TokenCounter
	observer observability.Provider
	repair   bool
}

// Option configures a History.
type Option func(*History)

// WithTokenCounter sets the capability used by Stats and the exporters.
// Without one, every token figure is 0.
func WithTokenCounter(counter TokenCounter) Option {
	return func(h *History) {
		h.counter = counter
	}
}

// WithObserver enables structured logging of absorbed irregularities
// (skipped tool calls, failed token counts) and export spans.
func WithObserver(observer observability.Provider) Option {
	return func(h *History) {
		h.observer = observer
	}
}

// WithArgumentRepair makes argument parsing fall back to jsonrepair when a
// tool call's arguments are not valid JSON.
func WithArgumentRepair() Option {
	return func(h *History) {
		h.repair = true
	}
}

// New wraps messages. The slice is referenced, not copied.
//
// Example usage:
//
//	h := history.New(messages, history.WithTokenCounter(tokens.NewCharCounter()))
//	for _, turn := range h.Timeline() {
//	    fmt.Println(turn.Index, turn.UserContent)
//	}
func New(messages []ai.Message, opts ...Option) *History {
	h := &History{messages: messages}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load snapshots every message of store and wraps the snapshot.
func Load(ctx context.Context, store memory.Provider, opts ...Option) (*History, error) {
	h := New(nil, opts...)

	var span observability.Span
	start := time.Now()
	if h.observer != nil {
		ctx, span = h.observer.StartSpan(ctx, observability.SpanHistoryLoad)
		defer span.End()
	}

	messages, err := store.AllMessages(ctx)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "load failed")
		}
		return nil, fmt.Errorf("history: load transcript: %w", err)
	}
	h.messages = messages

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrMessagesCount, len(messages)))
		span.SetStatus(observability.StatusOK, "")
		h.observer.Debug(ctx, "Transcript loaded",
			observability.Int(observability.AttrMessagesCount, len(messages)),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
	}
	return h, nil
}

// Len returns the number of messages in the transcript.
func (h *History) Len() int {
	return len(h.messages)
}

// countTokens returns the token cost of one message, absorbing counter
// failures: an error, a negative count or a panic all count as 0.
func (h *History) countTokens(index int, message ai.Message) (count int) {
	if h.counter == nil {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			h.tokenCountFailed(index, message, fmt.Errorf("token counter panicked: %v", r))
			count = 0
		}
	}()

	n, err := h.counter.CountMessages([]ai.Message{message})
	if err != nil {
		h.tokenCountFailed(index, message, err)
		return 0
	}
	if n < 0 {
		h.tokenCountFailed(index, message, fmt.Errorf("token counter returned negative count %d", n))
		return 0
	}
	return n
}

func (h *History) tokenCountFailed(index int, message ai.Message, err error) {
	if h.observer == nil {
		return
	}
	ctx := context.Background()
	h.observer.Counter(observability.MetricTokenCountFailures).Add(ctx, 1)
	h.observer.Warn(ctx, "Token count failed, counting message as 0",
		observability.Int(observability.AttrMessageIndex, index),
		observability.String(observability.AttrMessageRole, message.Role.Label()),
		observability.Error(err),
	)
}

// toolCallSkipped logs a tool_calls entry that carries no usable function.
func (h *History) toolCallSkipped(messageIndex, callIndex int, reason string) {
	if h.observer == nil {
		return
	}
	ctx := context.Background()
	h.observer.Counter(observability.MetricSkippedToolCalls).Add(ctx, 1)
	h.observer.Debug(ctx, "Skipping tool call entry",
		observability.Int(observability.AttrMessageIndex, messageIndex),
		observability.Int(observability.AttrToolCallIndex, callIndex),
		observability.String(observability.AttrSkipReason, reason),
	)
}

// parseArguments decodes tool call arguments; anything that does not decode
// into an object becomes an empty map.
func (h *History) parseArguments(raw string) map[string]any {
	return parse.ArgumentsOrEmpty(raw, h.repair)
}
