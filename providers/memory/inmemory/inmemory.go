package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/memory"
	"github.com/leofalp/chatlog/providers/observability"
)

// ArrayMemory is a simple, concurrency-safe in-memory transcript store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
// Messages are deep-copied on the way in and on the way out, so neither the
// caller's values nor the stored ones can be mutated through an alias.
type ArrayMemory struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		messages: []ai.Message{},
	}
}

// NewFromMessages returns a store preloaded with copies of messages.
func NewFromMessages(messages []ai.Message) *ArrayMemory {
	m := &ArrayMemory{messages: make([]ai.Message, len(messages))}
	for i, msg := range messages {
		m.messages[i] = msg.Clone()
	}
	return m
}

// Ensure ArrayMemory implements memory.Provider at compile time.
var _ memory.Provider = (*ArrayMemory)(nil)

// AppendMessage stores a copy of message at the end of the transcript.
// It is a no-op when message is nil and never returns an error.
// When an observability span is present in ctx, an event is recorded with the
// message role and content length, and the running total is set as a span
// attribute.
func (m *ArrayMemory) AppendMessage(ctx context.Context, message *ai.Message) error {
	if message == nil {
		return nil
	}

	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryMessageRole, message.Role.Label()),
			observability.Int(observability.AttrMemoryMessageLength, len(message.ContentOrEmpty())),
		)
	}

	stored := message.Clone()
	m.mu.Lock()
	m.messages = append(m.messages, stored)
	totalMessages := len(m.messages)
	m.mu.Unlock()

	if span != nil {
		span.SetAttributes(
			observability.Int(observability.AttrMemoryTotalMessages, totalMessages),
		)
	}
	return nil
}

// Count returns the number of messages stored. The returned error is always nil.
func (m *ArrayMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	n := len(m.messages)
	m.mu.RUnlock()
	return n, nil
}

// AllMessages returns a copy of all messages. The returned error is always nil.
func (m *ArrayMemory) AllMessages(_ context.Context) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.messages), nil
}

// LastMessages returns up to the last n messages, oldest first.
// If n exceeds the number of stored messages, all messages are returned.
// Returns an empty, non-nil slice when n is zero or negative.
func (m *ArrayMemory) LastMessages(_ context.Context, n int) ([]ai.Message, error) {
	if n <= 0 {
		return []ai.Message{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.messages) {
		n = len(m.messages)
	}
	return cloneAll(m.messages[len(m.messages)-n:]), nil
}

// PopLastMessage removes and returns the last message, or nil if empty.
func (m *ArrayMemory) PopLastMessage(_ context.Context) (*ai.Message, error) {
	m.mu.Lock()
	if len(m.messages) == 0 {
		m.mu.Unlock()
		return nil, nil
	}
	idx := len(m.messages) - 1
	msg := m.messages[idx]
	m.messages[idx] = ai.Message{}
	m.messages = m.messages[:idx]
	m.mu.Unlock()
	return &msg, nil
}

// ClearMessages removes all messages while retaining the underlying slice
// capacity. When an observability span is present in ctx, a clear event is
// recorded before the store is reset.
func (m *ArrayMemory) ClearMessages(ctx context.Context) error {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}

	m.mu.Lock()
	clear(m.messages)
	m.messages = m.messages[:0]
	m.mu.Unlock()
	return nil
}

// FilterByRole returns copies of all messages whose role matches role.
// The returned slice is always non-nil.
func (m *ArrayMemory) FilterByRole(_ context.Context, role ai.MessageRole) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	filtered := make([]ai.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.Role == role {
			filtered = append(filtered, msg.Clone())
		}
	}
	return filtered, nil
}

func cloneAll(messages []ai.Message) []ai.Message {
	out := make([]ai.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.Clone()
	}
	return out
}
