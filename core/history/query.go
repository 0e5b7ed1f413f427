package history

import (
	"regexp"
	"strings"

	"github.com/leofalp/chatlog/providers/ai"
)

// Criterion narrows the messages returned by Filter. Criteria combine with AND.
type Criterion func(*criteria)

type criteria struct {
	role     *ai.MessageRole
	toolName *string
	content  *string
	pattern  *string
}

// ByRole keeps messages whose role equals role exactly.
func ByRole(role ai.MessageRole) Criterion {
	return func(c *criteria) {
		c.role = &role
	}
}

// ByToolName keeps assistant messages with a call to the named function and
// tool messages whose name is the given one.
func ByToolName(name string) Criterion {
	return func(c *criteria) {
		c.toolName = &name
	}
}

// ByContent keeps messages whose content contains substr, ignoring case.
// Messages without content never match.
func ByContent(substr string) Criterion {
	return func(c *criteria) {
		c.content = &substr
	}
}

// ByPattern keeps messages whose content matches the regular expression
// pattern anywhere, ignoring case. Messages without content never match.
// Filter reports an [*InvalidPatternError] when pattern does not compile.
func ByPattern(pattern string) Criterion {
	return func(c *criteria) {
		c.pattern = &pattern
	}
}

// Filter returns the messages matching every criterion, in transcript order.
// With no criteria it returns a copy of the whole transcript.
func (h *History) Filter(opts ...Criterion) ([]ai.Message, error) {
	var c criteria
	for _, opt := range opts {
		opt(&c)
	}

	var re *regexp.Regexp
	if c.pattern != nil {
		compiled, err := regexp.Compile("(?i)" + *c.pattern)
		if err != nil {
			return nil, &InvalidPatternError{Pattern: *c.pattern, Err: err}
		}
		re = compiled
	}
	var needle string
	if c.content != nil {
		needle = strings.ToLower(*c.content)
	}

	out := make([]ai.Message, 0, len(h.messages))
	for _, msg := range h.messages {
		if c.role != nil && msg.Role != *c.role {
			continue
		}
		if c.toolName != nil && !mentionsTool(msg, *c.toolName) {
			continue
		}
		if c.content != nil && (msg.Content == nil || !strings.Contains(strings.ToLower(*msg.Content), needle)) {
			continue
		}
		if re != nil && (msg.Content == nil || !re.MatchString(*msg.Content)) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func mentionsTool(msg ai.Message, name string) bool {
	switch msg.Role {
	case ai.RoleAssistant:
		for _, call := range msg.ToolCalls {
			if call.WellFormed() && call.Function.Name == name {
				return true
			}
		}
	case ai.RoleTool:
		return msg.Name == name
	}
	return false
}

// Slice returns messages[start:end] clipped to the transcript. Negative
// indices count back from the end, so Slice(-2, h.Len()) is the last two.
func (h *History) Slice(start, end int) []ai.Message {
	n := len(h.messages)
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if start >= end {
		return []ai.Message{}
	}
	return copyMessages(h.messages[start:end])
}

// First returns the first n messages; n <= 0 yields an empty slice.
func (h *History) First(n int) []ai.Message {
	if n <= 0 {
		return []ai.Message{}
	}
	return copyMessages(h.messages[:min(n, len(h.messages))])
}

// Last returns the last n messages in chronological order; n <= 0 yields an
// empty slice.
func (h *History) Last(n int) []ai.Message {
	if n <= 0 {
		return []ai.Message{}
	}
	return copyMessages(h.messages[len(h.messages)-min(n, len(h.messages)):])
}

// All returns a copy of the whole transcript.
func (h *History) All() []ai.Message {
	return copyMessages(h.messages)
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

func copyMessages(messages []ai.Message) []ai.Message {
	out := make([]ai.Message, len(messages))
	copy(out, messages)
	return out
}
