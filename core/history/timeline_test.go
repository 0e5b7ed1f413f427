package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTimeline(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       []Turn
	}{
		{
			name: "single exchange",
			transcript: `[
				{"role": "user", "content": "Hi"},
				{"role": "assistant", "content": "Hello"}
			]`,
			want: []Turn{{
				Index:            0,
				UserContent:      strPtr("Hi"),
				AssistantContent: strPtr("Hello"),
				ToolInteractions: []ToolInteraction{},
			}},
		},
		{
			name: "tool loop stays in one turn",
			transcript: `[
				{"role": "assistant", "content": "Reading.", "tool_calls": [
					{"id": "c1", "function": {"name": "read_file", "arguments": "{\"path\":\"a.txt\"}"}}
				]},
				{"role": "tool", "tool_call_id": "c1", "name": "read_file", "content": "DATA"},
				{"role": "assistant", "content": "Done"}
			]`,
			want: []Turn{{
				Index:            0,
				AssistantContent: strPtr("Reading.\nDone"),
				ToolInteractions: []ToolInteraction{{
					ToolName:   "read_file",
					ToolCallID: "c1",
					Arguments:  map[string]any{"path": "a.txt"},
					Result:     "DATA",
				}},
			}},
		},
		{
			name: "system context attaches to first user turn",
			transcript: `[
				{"role": "system", "content": "Be terse."},
				{"role": "system", "content": "Answer in English."},
				{"role": "user", "content": "Q1"},
				{"role": "assistant", "content": "A1"},
				{"role": "user", "content": "Q2"},
				{"role": "assistant", "content": "A2"}
			]`,
			want: []Turn{
				{
					Index:            0,
					UserContent:      strPtr("Q1"),
					AssistantContent: strPtr("A1"),
					ToolInteractions: []ToolInteraction{},
					SystemContext:    strPtr("Be terse.\nAnswer in English."),
				},
				{
					Index:            1,
					UserContent:      strPtr("Q2"),
					AssistantContent: strPtr("A2"),
					ToolInteractions: []ToolInteraction{},
				},
			},
		},
		{
			name: "late system context joins the existing context",
			transcript: `[
				{"role": "system", "content": "Be terse."},
				{"role": "user", "content": "Q1"},
				{"role": "system", "content": "Switch to French."},
				{"role": "user", "content": "Q2"}
			]`,
			want: []Turn{
				{
					Index:            0,
					UserContent:      strPtr("Q1"),
					ToolInteractions: []ToolInteraction{},
					SystemContext:    strPtr("Be terse.\nSwitch to French."),
				},
				{
					Index:            1,
					UserContent:      strPtr("Q2"),
					ToolInteractions: []ToolInteraction{},
				},
			},
		},
		{
			name: "system only",
			transcript: `[
				{"role": "system", "content": "Be terse."},
				{"role": "system", "content": null}
			]`,
			want: []Turn{{
				Index:            0,
				ToolInteractions: []ToolInteraction{},
				SystemContext:    strPtr("Be terse."),
			}},
		},
		{
			name: "unclaimed context becomes a trailing turn",
			transcript: `[
				{"role": "system", "content": "Be terse."},
				{"role": "assistant", "content": "Hello!"}
			]`,
			want: []Turn{
				{
					Index:            0,
					AssistantContent: strPtr("Hello!"),
					ToolInteractions: []ToolInteraction{},
				},
				{
					Index:            1,
					ToolInteractions: []ToolInteraction{},
					SystemContext:    strPtr("Be terse."),
				},
			},
		},
		{
			name: "consecutive replies open new turns",
			transcript: `[
				{"role": "user", "content": "Q"},
				{"role": "assistant", "content": "A1"},
				{"role": "assistant", "content": "A2"}
			]`,
			want: []Turn{
				{
					Index:            0,
					UserContent:      strPtr("Q"),
					AssistantContent: strPtr("A1"),
					ToolInteractions: []ToolInteraction{},
				},
				{
					Index:            1,
					AssistantContent: strPtr("A2"),
					ToolInteractions: []ToolInteraction{},
				},
			},
		},
		{
			name: "empty content is kept and joined",
			transcript: `[
				{"role": "user", "content": "Q"},
				{"role": "assistant", "content": "", "tool_calls": [{"id": "t", "function": {"name": "clock"}}]},
				{"role": "tool", "tool_call_id": "t", "name": "clock", "content": "noon"},
				{"role": "assistant", "content": "It is noon."}
			]`,
			want: []Turn{{
				Index:            0,
				UserContent:      strPtr("Q"),
				AssistantContent: strPtr("\nIt is noon."),
				ToolInteractions: []ToolInteraction{{
					ToolName:   "clock",
					ToolCallID: "t",
					Arguments:  map[string]any{},
					Result:     "noon",
				}},
			}},
		},
		{
			name: "malformed and unnamed calls",
			transcript: `[
				{"role": "user", "content": "Q"},
				{"role": "assistant", "tool_calls": ["junk", {"id": "n", "function": {"arguments": "{\"x\":\"y\"}"}}]}
			]`,
			want: []Turn{{
				Index:            0,
				UserContent:      strPtr("Q"),
				ToolInteractions: []ToolInteraction{{
					ToolName:   "unknown",
					ToolCallID: "n",
					Arguments:  map[string]any{"x": "y"},
					Result:     "",
				}},
			}},
		},
		{
			name: "orphan tool message and unknown roles are skipped",
			transcript: `[
				{"role": "user", "content": "Q"},
				{"role": "tool", "tool_call_id": "zz", "content": "stray"},
				{"role": "critic", "content": "meh"},
				{"content": "no role"},
				{"role": "assistant", "content": "A"}
			]`,
			want: []Turn{{
				Index:            0,
				UserContent:      strPtr("Q"),
				AssistantContent: strPtr("A"),
				ToolInteractions: []ToolInteraction{},
			}},
		},
		{
			name:       "empty transcript",
			transcript: `[]`,
			want:       []Turn{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(decode(t, tt.transcript)).Timeline()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Timeline() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTimeline_Invariants(t *testing.T) {
	messages := decode(t, `[
		{"role": "system", "content": "S1"},
		{"role": "assistant", "content": "early"},
		{"role": "user", "content": "Q1"},
		{"role": "system", "content": "S2"},
		{"role": "assistant", "tool_calls": [{"id": "1", "function": {"name": "f"}}]},
		{"role": "tool", "tool_call_id": "1", "content": "r"},
		{"role": "assistant", "content": "A1"},
		{"role": "assistant", "content": "A2"},
		{"role": "user", "content": "Q2"},
		{"role": "system", "content": "S3"}
	]`)

	turns := New(messages).Timeline()
	withContext := 0
	for i, turn := range turns {
		if turn.Index != i {
			t.Errorf("turn %d has Index %d", i, turn.Index)
		}
		if turn.SystemContext != nil {
			withContext++
		}
		if turn.ToolInteractions == nil {
			t.Errorf("turn %d has nil ToolInteractions", i)
		}
	}
	if withContext > 1 {
		t.Errorf("%d turns carry system context, want at most 1", withContext)
	}
}

func TestTimeline_DoesNotAliasTranscript(t *testing.T) {
	messages := decode(t, conversation)
	turns := New(messages).Timeline()

	*turns[0].UserContent = "changed"
	if messages[1].ContentOrEmpty() != "Please read a.txt" {
		t.Errorf("mutating a turn changed the transcript: %q", messages[1].ContentOrEmpty())
	}
}
