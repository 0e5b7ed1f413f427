package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatlog/core/history"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		sel        selection
		format     string
		metadata   bool
		maxContent int
		html       bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the transcript, or a selection of it, as JSON, Markdown or CSV",
		Long: `Export the transcript, or the messages picked by the selection flags.

Formats:
  json      every field of every message, two-space indented
  markdown  one section per message, tool calls folded into the assistant turn
  csv       index,role,content,tool_name,tool_call_id,token_count
  dict      per-message records with metadata, printed as JSON

Examples:
  chatlog export -i chat.json --format markdown --html -o chat.md
  chatlog export -i chat.json --format csv --max-content 200 --role assistant`,
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

			opts := []history.ExportOption{history.WithSubset(subset)}
			if metadata || (!cmd.Flags().Changed("metadata") && a.cfg.Export.Metadata) {
				opts = append(opts, history.WithMetadata())
			}
			if html || (!cmd.Flags().Changed("html") && a.cfg.Export.HTMLToMarkdown) {
				opts = append(opts, history.WithHTMLToMarkdown())
			}
			limit := a.cfg.Export.MaxContent
			if cmd.Flags().Changed("max-content") {
				limit = maxContent
			}
			opts = append(opts, history.WithMaxContentLength(limit))

			out, err := h.Export(format, opts...)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if format == history.FormatDict {
				if err := writeJSON(&buf, out.Records); err != nil {
					return err
				}
			} else {
				buf.WriteString(out.Text)
				if !strings.HasSuffix(out.Text, "\n") {
					buf.WriteByte('\n')
				}
			}
			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}

	sel.register(cmd)
	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", history.FormatJSON, "Output format: "+strings.Join(history.Formats(), ", "))
	flags.BoolVar(&metadata, "metadata", false, "Add per-message index and token count (json, markdown)")
	flags.IntVar(&maxContent, "max-content", 0, "CSV content limit in characters (default from config, 500)")
	flags.BoolVar(&html, "html", false, "Convert HTML message bodies to Markdown (markdown)")
	flags.StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
