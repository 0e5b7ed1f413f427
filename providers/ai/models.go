package ai

import (
	"encoding/json"
)

// Message represents a single message in a conversation transcript.
//
// The struct mirrors the chat-completion wire format. Fields that the wire
// format allows to be absent or null are pointers so the two cases stay
// distinguishable from an explicit empty string. Every key the model does
// not know about is kept verbatim in Extra and re-emitted on encode.
type Message struct {
	// Core fields
	Role    MessageRole `json:"role"`
	Content *string     `json:"content,omitempty"` // nil when absent or null

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID *string    `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that generated this response

	// Extra holds passthrough fields, plus known keys whose value did not
	// fit the typed field (an explicit null content, a numeric role...).
	Extra map[string]json.RawMessage `json:"-"`
}

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`

	// raw is the original encoding of a decoded entry; it is re-emitted
	// verbatim so export never rewrites what the transcript contained.
	raw       json.RawMessage
	malformed bool
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// WellFormed reports whether the entry was an object carrying an object
// "function" member. Entries built in code are always well formed.
func (tc ToolCall) WellFormed() bool {
	return !tc.malformed
}

// Raw returns the original JSON of a decoded entry, or nil for entries built in code.
func (tc ToolCall) Raw() json.RawMessage {
	return tc.raw
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Middle llm response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// RoleUnknown is the label used wherever a message carries no role.
const RoleUnknown = "unknown"

// Label returns the role as a string, or [RoleUnknown] when it is empty.
func (r MessageRole) Label() string {
	if r == "" {
		return RoleUnknown
	}
	return string(r)
}

// ContentOrEmpty returns the message content, or "" when it is absent or null.
func (m Message) ContentOrEmpty() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasExtra reports whether key is present among the passthrough fields.
func (m Message) HasExtra(key string) bool {
	_, ok := m.Extra[key]
	return ok
}

// NewSystemMessage returns a system message with the given content.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: &content}
}

// NewUserMessage returns a user message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: &content}
}

// NewAssistantMessage returns an assistant message with the given content and
// tool calls. Pass an empty content together with calls for a pure tool-call turn;
// use [Message.Content] = nil directly when the content must be absent.
func NewAssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: &content, ToolCalls: calls}
}

// NewToolMessage returns a tool result message linked to callID.
func NewToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: &content, ToolCallID: &callID, Name: name}
}

// NewToolCall returns a function tool call.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{
		ID:   id,
		Type: "function",
		Function: ToolCallFunction{
			Name:      name,
			Arguments: arguments,
		},
	}
}

// Clone returns a deep copy of the message, so the copy can be stored or
// mutated without aliasing the original's pointers, slices or extras.
func (m Message) Clone() Message {
	out := m
	if m.Content != nil {
		content := *m.Content
		out.Content = &content
	}
	if m.ToolCallID != nil {
		id := *m.ToolCallID
		out.ToolCallID = &id
	}
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			out.ToolCalls[i] = call
			if call.raw != nil {
				out.ToolCalls[i].raw = append(json.RawMessage(nil), call.raw...)
			}
		}
	}
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for key, raw := range m.Extra {
			out.Extra[key] = append(json.RawMessage(nil), raw...)
		}
	}
	return out
}
