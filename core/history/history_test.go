package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/memory/inmemory"
	"github.com/leofalp/chatlog/providers/observability"
	"github.com/leofalp/chatlog/providers/observability/slogobs"
)

// conversation is a small transcript with one linked tool call.
const conversation = `[
  {"role": "system", "content": "Be terse."},
  {"role": "user", "content": "Please read a.txt"},
  {"role": "assistant", "content": null, "tool_calls": [
    {"id": "c1", "type": "function", "function": {"name": "read_file", "arguments": "{\"path\":\"a.txt\"}"}}
  ]},
  {"role": "tool", "tool_call_id": "c1", "name": "read_file", "content": "DATA"},
  {"role": "assistant", "content": "The file says DATA."},
  {"role": "user", "content": "Thanks!"}
]`

var messageCmp = cmp.AllowUnexported(ai.ToolCall{})

func decode(t *testing.T, data string) []ai.Message {
	t.Helper()
	messages, err := ai.DecodeMessages([]byte(data))
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	return messages
}

func pick(messages []ai.Message, indexes ...int) []ai.Message {
	out := make([]ai.Message, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, messages[i])
	}
	return out
}

func cloneAll(messages []ai.Message) []ai.Message {
	out := make([]ai.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.Clone()
	}
	return out
}

func strPtr(s string) *string {
	return &s
}

// contentLength counts one token per byte of content.
var contentLength = TokenCounterFunc(func(messages []ai.Message) (int, error) {
	total := 0
	for _, msg := range messages {
		total += len(msg.ContentOrEmpty())
	}
	return total, nil
})

func newObserver(buf *bytes.Buffer) *slogobs.Observer {
	return slogobs.New(
		slogobs.WithOutput(buf),
		slogobs.WithLevel(slog.LevelDebug),
		slogobs.WithFormat(slogobs.FormatJSON),
	)
}

func TestNew_DoesNotCopy(t *testing.T) {
	messages := decode(t, conversation)
	h := New(messages)
	if h.Len() != len(messages) {
		t.Fatalf("Len() = %d, want %d", h.Len(), len(messages))
	}

	*messages[1].Content = "edited"
	if got := h.All()[1].ContentOrEmpty(); got != "edited" {
		t.Errorf("expected History to reference the caller's slice, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	messages := decode(t, conversation)
	store := inmemory.NewFromMessages(messages)

	var buf bytes.Buffer
	h, err := Load(ctx, store, WithObserver(newObserver(&buf)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(messages, h.All(), messageCmp); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(buf.Bytes(), []byte(observability.SpanHistoryLoad)) {
		t.Errorf("expected load span in log output, got %s", buf.String())
	}
}

type failingStore struct {
	inmemory.ArrayMemory
	err error
}

func (s *failingStore) AllMessages(context.Context) ([]ai.Message, error) {
	return nil, s.err
}

func TestLoad_Error(t *testing.T) {
	want := errors.New("connection refused")
	_, err := Load(context.Background(), &failingStore{err: want})
	if !errors.Is(err, want) {
		t.Fatalf("Load() error = %v, want wrapped %v", err, want)
	}
}

func TestCountTokens(t *testing.T) {
	msg := ai.NewUserMessage("hello")

	tests := []struct {
		name    string
		counter TokenCounter
		want    int
	}{
		{name: "no counter", counter: nil, want: 0},
		{name: "counts", counter: contentLength, want: 5},
		{
			name: "error",
			counter: TokenCounterFunc(func([]ai.Message) (int, error) {
				return 0, errors.New("tokenizer unavailable")
			}),
			want: 0,
		},
		{
			name: "negative",
			counter: TokenCounterFunc(func([]ai.Message) (int, error) {
				return -3, nil
			}),
			want: 0,
		},
		{
			name: "panic",
			counter: TokenCounterFunc(func([]ai.Message) (int, error) {
				panic("boom")
			}),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(nil, WithTokenCounter(tt.counter))
			if got := h.countTokens(0, msg); got != tt.want {
				t.Errorf("countTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountTokens_SingleMessageBatches(t *testing.T) {
	var batches []int
	counter := TokenCounterFunc(func(messages []ai.Message) (int, error) {
		batches = append(batches, len(messages))
		return 1, nil
	})

	h := New(decode(t, conversation), WithTokenCounter(counter))
	h.Stats()

	if len(batches) != h.Len() {
		t.Fatalf("expected %d counter calls, got %d", h.Len(), len(batches))
	}
	for i, size := range batches {
		if size != 1 {
			t.Errorf("call %d: batch size = %d, want 1", i, size)
		}
	}
}

func TestCountTokens_FailureIsObserved(t *testing.T) {
	var buf bytes.Buffer
	obs := newObserver(&buf)
	counter := TokenCounterFunc(func([]ai.Message) (int, error) {
		return 0, errors.New("tokenizer unavailable")
	})

	h := New(nil, WithTokenCounter(counter), WithObserver(obs))
	h.countTokens(3, ai.NewUserMessage("x"))

	if got := obs.CounterValue(observability.MetricTokenCountFailures); got != 1 {
		t.Errorf("token count failures = %d, want 1", got)
	}
	if !bytes.Contains(buf.Bytes(), []byte("tokenizer unavailable")) {
		t.Errorf("expected the counter error in log output, got %s", buf.String())
	}
}
