package memory

import (
	"context"

	"github.com/leofalp/chatlog/providers/ai"
)

// Provider stores the messages of one transcript in chronological order.
//
// Read methods return freshly allocated slices that the caller owns; an empty
// store yields an empty, non-nil slice. Write methods return storage errors
// instead of logging them so importers can report a partial load.
type Provider interface {
	AppendMessage(ctx context.Context, message *ai.Message) error
	Count(ctx context.Context) (int, error)
	AllMessages(ctx context.Context) ([]ai.Message, error)
	LastMessages(ctx context.Context, n int) ([]ai.Message, error)
	PopLastMessage(ctx context.Context) (*ai.Message, error)
	ClearMessages(ctx context.Context) error
	FilterByRole(ctx context.Context, role ai.MessageRole) ([]ai.Message, error)
}

// AppendAll appends messages in order and stops at the first failure,
// returning how many were stored.
func AppendAll(ctx context.Context, store Provider, messages []ai.Message) (int, error) {
	for i := range messages {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := store.AppendMessage(ctx, &messages[i]); err != nil {
			return i, err
		}
	}
	return len(messages), nil
}
