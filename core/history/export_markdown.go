package history

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/chatlog/core/parse"
	"github.com/leofalp/chatlog/internal/utils"
	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/observability"
)

const (
	markdownSeparator = "\n\n---\n\n"
	codeFence         = "```"
	// escapedFence interleaves zero-width spaces so the sequence no longer
	// closes a fence.
	escapedFence = "`\u200b`\u200b`"
)

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// ExportMarkdown renders one "### Role" section per message, separated by
// horizontal rules. Assistant tool calls are rendered inside the assistant's
// section with their arguments and linked result in fenced blocks; tool
// messages never get a section of their own. Results are linked against the
// whole transcript, so exporting a subset keeps results of calls it contains.
func (h *History) ExportMarkdown(opts ...ExportOption) (text string, err error) {
	cfg := h.exportConfig(opts)
	done := h.observeExport(FormatMarkdown, len(cfg.subset))
	defer func() { done(len(text), err) }()

	results := resultLookup(h.messages)

	sections := make([]string, 0, len(cfg.subset))
	for i, msg := range cfg.subset {
		if msg.Role == ai.RoleTool {
			continue
		}

		parts := []string{"### " + roleHeading(msg.Role)}
		if cfg.metadata {
			parts = append(parts, fmt.Sprintf("_tokens: %d_", h.countTokens(i, msg)))
		}
		if content := msg.ContentOrEmpty(); content != "" {
			if cfg.htmlToMarkdown {
				content = h.convertHTML(i, content)
			}
			parts = append(parts, content)
		}
		for _, call := range msg.ToolCalls {
			if !call.WellFormed() {
				continue
			}
			parts = append(parts, renderToolCall(call, results)...)
		}
		sections = append(sections, strings.Join(parts, "\n\n"))
	}

	if len(sections) == 0 {
		return "", nil
	}
	return strings.Join(sections, markdownSeparator) + "\n", nil
}

func renderToolCall(call ai.ToolCall, results map[string]string) []string {
	name := call.Function.Name
	if name == "" {
		name = ai.RoleUnknown
	}
	parts := []string{
		fmt.Sprintf("**Tool: %s**", name),
		fence("json", parse.IndentArguments(call.Function.Arguments)),
	}
	if result, ok := results[call.ID]; ok {
		parts = append(parts, "**Result:**\n"+fence("", result))
	}
	return parts
}

func fence(lang, body string) string {
	return codeFence + lang + "\n" + escapeFences(body) + "\n" + codeFence
}

// escapeFences keeps body text from terminating the enclosing fence.
func escapeFences(s string) string {
	return strings.ReplaceAll(s, codeFence, escapedFence)
}

func roleHeading(role ai.MessageRole) string {
	switch role {
	case ai.RoleUser:
		return "User"
	case ai.RoleAssistant:
		return "Assistant"
	case ai.RoleSystem:
		return "System"
	case "":
		return "Unknown"
	default:
		return utils.TitleCase(string(role))
	}
}

// convertHTML converts content to Markdown when it contains HTML tags and
// keeps it as-is when it does not, or when conversion fails.
func (h *History) convertHTML(index int, content string) string {
	if !htmlTag.MatchString(content) {
		return content
	}
	converted, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		if h.observer != nil {
			h.observer.Debug(context.Background(), "HTML conversion failed, keeping raw content",
				observability.Int(observability.AttrMessageIndex, index),
				observability.Error(err),
			)
		}
		return content
	}
	return strings.TrimSpace(converted)
}
