package main

import (
	"github.com/spf13/cobra"

	"github.com/leofalp/chatlog/core/history"
	"github.com/leofalp/chatlog/providers/ai"
)

// selection picks a subset of the transcript: criteria first, then one of
// --first, --last or --start/--end over the filtered messages.
type selection struct {
	role    string
	tool    string
	content string
	regex   bool
	first   int
	last    int
	start   int
	end     int
}

func (s *selection) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.role, "role", "", "Keep messages with this exact role")
	flags.StringVar(&s.tool, "tool", "", "Keep tool calls to, and results from, this tool")
	flags.StringVar(&s.content, "content", "", "Keep messages whose content contains this text (case-insensitive)")
	flags.BoolVar(&s.regex, "regex", false, "Treat --content as a regular expression")
	flags.IntVar(&s.first, "first", 0, "Keep only the first N selected messages")
	flags.IntVar(&s.last, "last", 0, "Keep only the last N selected messages")
	flags.IntVar(&s.start, "start", 0, "Slice start index (negative counts from the end)")
	flags.IntVar(&s.end, "end", 0, "Slice end index, exclusive (negative counts from the end)")
	cmd.MarkFlagsMutuallyExclusive("first", "last")
	cmd.MarkFlagsMutuallyExclusive("first", "start")
	cmd.MarkFlagsMutuallyExclusive("last", "start")
	cmd.MarkFlagsMutuallyExclusive("first", "end")
	cmd.MarkFlagsMutuallyExclusive("last", "end")
}

func (s *selection) criteria() []history.Criterion {
	var criteria []history.Criterion
	if s.role != "" {
		criteria = append(criteria, history.ByRole(ai.MessageRole(s.role)))
	}
	if s.tool != "" {
		criteria = append(criteria, history.ByToolName(s.tool))
	}
	if s.content != "" {
		if s.regex {
			criteria = append(criteria, history.ByPattern(s.content))
		} else {
			criteria = append(criteria, history.ByContent(s.content))
		}
	}
	return criteria
}

// apply returns the selected messages.
func (s *selection) apply(cmd *cobra.Command, h *history.History) ([]ai.Message, error) {
	filtered, err := h.Filter(s.criteria()...)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	view := history.New(filtered)
	switch {
	case flags.Changed("first"):
		return view.First(s.first), nil
	case flags.Changed("last"):
		return view.Last(s.last), nil
	case flags.Changed("start") || flags.Changed("end"):
		end := view.Len()
		if flags.Changed("end") {
			end = s.end
		}
		return view.Slice(s.start, end), nil
	default:
		return filtered, nil
	}
}

func newFilterCmd(a *app) *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the messages matching the given criteria as JSON",
		Long: `Print the messages matching every given criterion, in transcript order,
as a JSON array. Without criteria every message is printed.

Examples:
  chatlog filter -i chat.json --role tool --tool read_file
  chatlog filter -i chat.json --content "timeout|refused" --regex --last 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHistory(cmd)
			if err != nil {
				return err
			}
			subset, err := sel.apply(cmd, h)
			if err != nil {
				return err
			}
			text, err := h.ExportJSON(history.WithSubset(subset))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(text + "\n"))
			return err
		},
	}
	sel.register(cmd)
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print message and token counts per role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHistory(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), h.Stats())
		},
	}
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Summarize tool calls per tool, linked to their results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHistory(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), h.ToolSummary())
		},
	}
}

func newTimelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Print the transcript folded into conversation turns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.loadHistory(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), h.Timeline())
		},
	}
}
