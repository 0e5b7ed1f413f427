package history

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/leofalp/chatlog/internal/utils"
	"github.com/leofalp/chatlog/providers/ai"
)

var csvHeader = []string{"index", "role", "content", "tool_name", "tool_call_id", "token_count"}

// ExportCSV writes one row per message under the header
// index,role,content,tool_name,tool_call_id,token_count.
//
// Content longer than the limit (500 characters unless set with
// [WithMaxContentLength]) is cut and suffixed with "...". For tool messages
// tool_name and tool_call_id are the message's own; for assistant messages
// they describe the first tool call only. Values are quoted per RFC 4180;
// records end with "\n".
func (h *History) ExportCSV(opts ...ExportOption) (text string, err error) {
	cfg := h.exportConfig(opts)
	done := h.observeExport(FormatCSV, len(cfg.subset))
	defer func() { done(len(text), err) }()

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("history: write CSV header: %w", err)
	}

	for i, msg := range cfg.subset {
		toolName, toolCallID := csvToolColumns(msg)
		record := []string{
			strconv.Itoa(i),
			string(msg.Role),
			utils.TruncateString(msg.ContentOrEmpty(), cfg.maxContent),
			toolName,
			toolCallID,
			strconv.Itoa(h.countTokens(i, msg)),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("history: write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("history: flush CSV: %w", err)
	}
	return sb.String(), nil
}

func csvToolColumns(msg ai.Message) (name, id string) {
	switch msg.Role {
	case ai.RoleTool:
		name = msg.Name
		if msg.ToolCallID != nil {
			id = *msg.ToolCallID
		}
	case ai.RoleAssistant:
		if len(msg.ToolCalls) > 0 {
			first := msg.ToolCalls[0]
			name, id = first.Function.Name, first.ID
		}
	}
	return name, id
}
