package history

import (
	"encoding/json"
)

// MessageStats aggregates message and token counts per role.
type MessageStats struct {
	TotalMessages  int            `json:"total_messages"`
	MessagesByRole map[string]int `json:"messages_by_role"`
	TotalTokens    int            `json:"total_tokens"`
	TokensByRole   map[string]int `json:"tokens_by_role"`
}

// AvgTokensPerMessage is TotalTokens / TotalMessages, or 0 for an empty transcript.
func (s MessageStats) AvgTokensPerMessage() float64 {
	if s.TotalMessages == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.TotalMessages)
}

// MarshalJSON adds the derived avg_tokens_per_message field.
func (s MessageStats) MarshalJSON() ([]byte, error) {
	type plain MessageStats
	return json.Marshal(struct {
		plain
		AvgTokensPerMessage float64 `json:"avg_tokens_per_message"`
	}{plain(s), s.AvgTokensPerMessage()})
}

// Stats counts messages per role, labelling a missing role "unknown", and
// sums token counts when a [TokenCounter] is configured. A message whose
// count fails contributes 0 without aborting the aggregate.
func (h *History) Stats() MessageStats {
	stats := MessageStats{
		MessagesByRole: make(map[string]int),
		TokensByRole:   make(map[string]int),
	}

	for i, msg := range h.messages {
		role := msg.Role.Label()
		stats.TotalMessages++
		stats.MessagesByRole[role]++

		if h.counter == nil {
			continue
		}
		tokens := h.countTokens(i, msg)
		stats.TotalTokens += tokens
		stats.TokensByRole[role] += tokens
	}
	return stats
}
