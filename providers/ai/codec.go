package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/leofalp/chatlog/internal/utils"
)

// knownKeys lists the typed Message fields in the order they are encoded.
var knownKeys = []string{"role", "content", "tool_calls", "tool_call_id", "name"}

// UnmarshalJSON decodes a message leniently. A value whose JSON type does not
// fit the typed field is kept in Extra instead of failing the whole message,
// because transcripts come from LLM logs that are not fully trusted.
// Only a non-object message is an error.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("ai: message must be a JSON object: %w", err)
	}
	if fields == nil {
		return errors.New("ai: message must be a JSON object, got null")
	}

	*m = Message{}
	for key, raw := range fields {
		switch key {
		case "role":
			if s, ok := asString(raw); ok && s != "" {
				m.Role = MessageRole(s)
				continue
			}
		case "content":
			if s, ok := asString(raw); ok {
				m.Content = &s
				continue
			}
		case "tool_calls":
			if isArray(raw) {
				var calls []ToolCall
				if err := json.Unmarshal(raw, &calls); err == nil {
					m.ToolCalls = calls
					continue
				}
			}
		case "tool_call_id":
			if s, ok := asString(raw); ok {
				m.ToolCallID = &s
				continue
			}
		case "name":
			if s, ok := asString(raw); ok && s != "" {
				m.Name = s
				continue
			}
		}
		m.setExtra(key, raw)
	}
	return nil
}

// MarshalJSON encodes the typed fields first, in wire order, followed by the
// passthrough fields sorted by key. HTML characters are not escaped.
func (m Message) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	emitted := make(map[string]bool, len(knownKeys))
	writeField := func(key string, value []byte) {
		if len(emitted) > 0 {
			buf.WriteByte(',')
		}
		encodedKey, _ := utils.MarshalNoEscape(key)
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(value)
		emitted[key] = true
	}

	for _, key := range knownKeys {
		var value any
		switch key {
		case "role":
			if m.Role == "" {
				continue
			}
			value = string(m.Role)
		case "content":
			if m.Content == nil {
				continue
			}
			value = *m.Content
		case "tool_calls":
			if m.ToolCalls == nil {
				continue
			}
			value = m.ToolCalls
		case "tool_call_id":
			if m.ToolCallID == nil {
				continue
			}
			value = *m.ToolCallID
		case "name":
			if m.Name == "" {
				continue
			}
			value = m.Name
		}
		encoded, err := utils.MarshalNoEscape(value)
		if err != nil {
			return nil, fmt.Errorf("ai: encode %s: %w", key, err)
		}
		writeField(key, encoded)
	}

	extraKeys := make([]string, 0, len(m.Extra))
	for key := range m.Extra {
		if !emitted[key] {
			extraKeys = append(extraKeys, key)
		}
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		raw := m.Extra[key]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("ai: extra field %q is not valid JSON", key)
		}
		writeField(key, raw)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToMap returns the message as a freshly allocated key-value record, the same
// shape the message has on the wire. Numbers are kept as [json.Number] so no
// precision is lost on passthrough fields.
func (m Message) ToMap() (map[string]any, error) {
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var record map[string]any
	if err := decoder.Decode(&record); err != nil {
		return nil, fmt.Errorf("ai: decode message record: %w", err)
	}
	return record, nil
}

func (m *Message) setExtra(key string, raw json.RawMessage) {
	if m.Extra == nil {
		m.Extra = make(map[string]json.RawMessage)
	}
	m.Extra[key] = raw
}

// UnmarshalJSON decodes a tool call entry without ever failing: anything that
// is not an object with an object "function" member is recorded as malformed.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	*tc = ToolCall{raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		tc.malformed = true
		return nil
	}
	if s, ok := asString(fields["id"]); ok {
		tc.ID = s
	}
	if s, ok := asString(fields["type"]); ok {
		tc.Type = s
	}

	var function map[string]json.RawMessage
	if err := json.Unmarshal(fields["function"], &function); err != nil || function == nil {
		tc.malformed = true
		return nil
	}
	if s, ok := asString(function["name"]); ok {
		tc.Function.Name = s
	}
	if arguments, ok := function["arguments"]; ok {
		if s, isString := asString(arguments); isString {
			tc.Function.Arguments = s
		} else if !isNull(arguments) {
			var compacted bytes.Buffer
			if err := json.Compact(&compacted, arguments); err == nil {
				tc.Function.Arguments = compacted.String()
			}
		}
	}
	return nil
}

// toolCallWire is the encoding of a tool call built in code.
type toolCallWire struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// MarshalJSON re-emits a decoded entry verbatim and encodes a code-built one
// from its fields.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	if tc.raw != nil {
		return tc.raw, nil
	}
	return utils.MarshalNoEscape(toolCallWire{ID: tc.ID, Type: tc.Type, Function: tc.Function})
}

// DecodeMessages decodes a JSON array of messages.
func DecodeMessages(data []byte) ([]Message, error) {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("ai: decode messages: %w", err)
	}
	if messages == nil {
		return []Message{}, nil
	}
	return messages, nil
}

// asString reports whether raw is a JSON string and returns its value.
func asString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
