package history

import (
	"github.com/leofalp/chatlog/providers/ai"
)

// ToolInteraction is one tool call made inside a turn, with its result.
type ToolInteraction struct {
	ToolName   string         `json:"tool_name"`
	ToolCallID string         `json:"tool_call_id"`
	Arguments  map[string]any `json:"arguments"`
	Result     string         `json:"result"`
}

// Turn is one logical exchange: a user prompt, the assistant's replies and
// the tool calls made while answering it. Nil content fields mean the turn
// never saw that part.
type Turn struct {
	Index            int               `json:"index"`
	UserContent      *string           `json:"user_content"`
	AssistantContent *string           `json:"assistant_content"`
	ToolInteractions []ToolInteraction `json:"tool_interactions"`
	SystemContext    *string           `json:"system_context"`
}

// timelineBuilder holds the state of one left-to-right pass.
type timelineBuilder struct {
	h       *History
	results map[string]string

	turns      []*Turn
	current    *Turn
	system     string
	hasSystem  bool
	inToolLoop bool
}

// Timeline folds the transcript into turns.
//
// A user message always opens a turn. An assistant message opens one only
// when there is no current turn, or the current turn already has an
// assistant reply and no tool loop is in progress; otherwise its content is
// newline-appended to the current turn. Tool results are resolved through
// tool_call_id and never form turns of their own. System messages collect
// into a context buffer that attaches to turn 0 when a user opens it; any
// context still pending at the end is kept on the turn that already carries
// context, or else becomes a final context-only turn.
func (h *History) Timeline() []Turn {
	b := &timelineBuilder{
		h:       h,
		results: resultLookup(h.messages),
	}

	for i := 0; i < len(h.messages); i++ {
		msg := h.messages[i]
		switch msg.Role {
		case ai.RoleSystem:
			b.addSystem(msg)
		case ai.RoleUser:
			b.addUser(msg)
		case ai.RoleAssistant:
			b.addAssistant(i, msg)
			if len(msg.ToolCalls) > 0 {
				for i+1 < len(h.messages) && h.messages[i+1].Role == ai.RoleTool {
					i++
				}
				b.inToolLoop = true
			}
		}
	}
	b.flushSystem()

	out := make([]Turn, len(b.turns))
	for i, turn := range b.turns {
		out[i] = *turn
	}
	return out
}

func (b *timelineBuilder) addSystem(msg ai.Message) {
	if msg.Content == nil {
		return
	}
	if b.hasSystem {
		b.system += "\n" + *msg.Content
	} else {
		b.system = *msg.Content
		b.hasSystem = true
	}
}

func (b *timelineBuilder) addUser(msg ai.Message) {
	turn := b.open()
	turn.UserContent = cloneString(msg.Content)
	b.inToolLoop = false

	if turn.Index == 0 && b.hasSystem {
		turn.SystemContext = cloneString(&b.system)
		b.system, b.hasSystem = "", false
	}
}

func (b *timelineBuilder) addAssistant(index int, msg ai.Message) {
	if b.current == nil || (b.current.AssistantContent != nil && !b.inToolLoop) {
		b.open()
	}
	turn := b.current

	if msg.Content != nil {
		if turn.AssistantContent != nil {
			joined := *turn.AssistantContent + "\n" + *msg.Content
			turn.AssistantContent = &joined
		} else {
			turn.AssistantContent = cloneString(msg.Content)
		}
	}

	b.inToolLoop = false
	for j, call := range msg.ToolCalls {
		if !call.WellFormed() {
			b.h.toolCallSkipped(index, j, "malformed entry")
			continue
		}
		name := call.Function.Name
		if name == "" {
			name = ai.RoleUnknown
		}
		turn.ToolInteractions = append(turn.ToolInteractions, ToolInteraction{
			ToolName:   name,
			ToolCallID: call.ID,
			Arguments:  b.h.parseArguments(call.Function.Arguments),
			Result:     b.results[call.ID],
		})
	}
}

func (b *timelineBuilder) open() *Turn {
	turn := &Turn{
		Index:            len(b.turns),
		ToolInteractions: []ToolInteraction{},
	}
	b.turns = append(b.turns, turn)
	b.current = turn
	return turn
}

// flushSystem places context that no user turn 0 claimed.
func (b *timelineBuilder) flushSystem() {
	if !b.hasSystem {
		return
	}
	for _, turn := range b.turns {
		if turn.SystemContext != nil {
			joined := *turn.SystemContext + "\n" + b.system
			turn.SystemContext = &joined
			return
		}
	}
	turn := &Turn{
		Index:            len(b.turns),
		ToolInteractions: []ToolInteraction{},
		SystemContext:    cloneString(&b.system),
	}
	b.turns = append(b.turns, turn)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
