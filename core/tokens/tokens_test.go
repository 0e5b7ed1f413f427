package tokens

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/chatlog/providers/ai"
)

func TestCharCount(t *testing.T) {
	tests := []struct {
		name     string
		messages []ai.Message
		want     int
	}{
		{name: "empty batch", messages: nil, want: 0},
		{name: "text", messages: []ai.Message{ai.NewUserMessage("hello")}, want: 5 + messageOverhead},
		{name: "absent content", messages: []ai.Message{{Role: ai.RoleAssistant}}, want: messageOverhead},
		{
			name: "tool call",
			messages: []ai.Message{
				ai.NewAssistantMessage("", ai.NewToolCall("c1", "read_file", `{"p":1}`)),
			},
			want: len("read_file") + len(`{"p":1}`) + messageOverhead,
		},
		{
			name:     "tool result",
			messages: []ai.Message{ai.NewToolMessage("c1", "read_file", "DATA")},
			want:     len("c1") + len("read_file") + len("DATA") + messageOverhead,
		},
		{
			name:     "several messages",
			messages: []ai.Message{ai.NewUserMessage("ab"), ai.NewUserMessage("cd")},
			want:     4 + 2*messageOverhead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CharCount(tt.messages); got != tt.want {
				t.Errorf("CharCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCharCounter_CountMessages(t *testing.T) {
	// 380 chars of text + 20 overhead = 400 chars -> 100 + 1
	messages := []ai.Message{ai.NewUserMessage(strings.Repeat("x", 380))}

	got, err := NewCharCounter().CountMessages(messages)
	if err != nil {
		t.Fatalf("CountMessages() error = %v", err)
	}
	if got != 101 {
		t.Errorf("CountMessages() = %d, want 101", got)
	}

	got, _ = NewCharCounter(WithCharactersPerToken(2)).CountMessages(messages)
	if got != 201 {
		t.Errorf("CountMessages() with ratio 2 = %d, want 201", got)
	}
}

func TestWithCharactersPerToken_IgnoresNonPositive(t *testing.T) {
	for _, ratio := range []float64{0, -1} {
		if got := NewCharCounter(WithCharactersPerToken(ratio)).Ratio(); got != DefaultCharactersPerToken {
			t.Errorf("ratio %v: Ratio() = %v, want default", ratio, got)
		}
	}
}

func TestCharCounter_Calibrate(t *testing.T) {
	// 30 chars of text + 20 overhead = 50 chars
	messages := []ai.Message{ai.NewUserMessage(strings.Repeat("y", 30))}
	counter := NewCharCounter()

	counter.Calibrate(messages, 25)
	if got := counter.Ratio(); got != 2.0 {
		t.Fatalf("first observation: Ratio() = %v, want 2.0", got)
	}

	counter.Calibrate(messages, 10)
	want := 0.3*5.0 + 0.7*2.0
	if got := counter.Ratio(); math.Abs(got-want) > 1e-9 {
		t.Errorf("second observation: Ratio() = %v, want %v", got, want)
	}

	counter.Calibrate(messages, 0)
	counter.Calibrate(nil, 10)
	if got := counter.Ratio(); math.Abs(got-want) > 1e-9 {
		t.Errorf("ignored observations changed the ratio to %v", got)
	}
}

func TestCharCounter_ConcurrentUse(t *testing.T) {
	counter := NewCharCounter()
	messages := []ai.Message{ai.NewUserMessage("hello world")}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				counter.Calibrate(messages, int64(i+1))
				return
			}
			if _, err := counter.CountMessages(messages); err != nil {
				t.Errorf("CountMessages() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
}
