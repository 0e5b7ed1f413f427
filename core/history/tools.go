package history

import (
	"github.com/leofalp/chatlog/providers/ai"
)

// ToolCallInfo summarizes every call made to one tool. ToolCallIDs has one
// entry per call and is authoritative for CallCount; Arguments and Results
// can be shorter when calls went unanswered.
type ToolCallInfo struct {
	ToolName    string           `json:"tool_name"`
	CallCount   int              `json:"call_count"`
	Arguments   []map[string]any `json:"arguments"`
	Results     []string         `json:"results"`
	ToolCallIDs []string         `json:"tool_call_ids"`
}

// resultLookup maps tool_call_id to result content for every tool message
// that carries an id. A later message with the same id wins.
func resultLookup(messages []ai.Message) map[string]string {
	results := make(map[string]string)
	for _, msg := range messages {
		if msg.Role == ai.RoleTool && msg.ToolCallID != nil {
			results[*msg.ToolCallID] = msg.ContentOrEmpty()
		}
	}
	return results
}

// ToolSummary groups tool calls by function name, in first-seen order.
//
// Calls come from the assistant messages' tool_calls; entries without an
// object function or without a name are skipped. Each call is linked to its
// result through tool_call_id. Tool messages whose id no call claimed are
// then appended as orphan calls under their own name ("unknown" if unset),
// after every call found in assistant messages.
func (h *History) ToolSummary() []ToolCallInfo {
	results := resultLookup(h.messages)
	matched := make(map[string]bool)

	var summary []*ToolCallInfo
	byName := make(map[string]*ToolCallInfo)
	infoFor := func(name string) *ToolCallInfo {
		info, ok := byName[name]
		if !ok {
			info = &ToolCallInfo{
				ToolName:    name,
				Arguments:   []map[string]any{},
				Results:     []string{},
				ToolCallIDs: []string{},
			}
			byName[name] = info
			summary = append(summary, info)
		}
		return info
	}

	for i, msg := range h.messages {
		if msg.Role != ai.RoleAssistant {
			continue
		}
		for j, call := range msg.ToolCalls {
			if !call.WellFormed() {
				h.toolCallSkipped(i, j, "malformed entry")
				continue
			}
			if call.Function.Name == "" {
				h.toolCallSkipped(i, j, "missing function name")
				continue
			}

			info := infoFor(call.Function.Name)
			info.CallCount++
			info.ToolCallIDs = append(info.ToolCallIDs, call.ID)
			info.Arguments = append(info.Arguments, h.parseArguments(call.Function.Arguments))
			if result, ok := results[call.ID]; ok {
				info.Results = append(info.Results, result)
				matched[call.ID] = true
			}
		}
	}

	for _, msg := range h.messages {
		if msg.Role != ai.RoleTool {
			continue
		}
		var id string
		if msg.ToolCallID != nil {
			id = *msg.ToolCallID
			if matched[id] {
				continue
			}
		}

		name := msg.Name
		if name == "" {
			name = ai.RoleUnknown
		}
		info := infoFor(name)
		info.CallCount++
		info.ToolCallIDs = append(info.ToolCallIDs, id)
		info.Results = append(info.Results, msg.ContentOrEmpty())
	}

	out := make([]ToolCallInfo, len(summary))
	for i, info := range summary {
		out[i] = *info
	}
	return out
}
