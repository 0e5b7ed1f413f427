// Package history queries and exports a chat transcript.
//
// A [History] wraps an ordered slice of [ai.Message] without copying or
// mutating it and offers five groups of read-only operations:
//
//   - Query: [History.Filter], [History.Slice], [History.First],
//     [History.Last] and [History.All] return fresh slices.
//   - Statistics: [History.Stats] counts messages and tokens per role.
//   - Tool linking: [History.ToolSummary] groups tool calls by name and
//     links each call to its result through tool_call_id.
//   - Timeline: [History.Timeline] folds the flat transcript into turns.
//   - Export: [History.Export] encodes a transcript or a subset of it as
//     JSON, Markdown, CSV, or plain records ("dict").
//
// Transcripts come from external LLM logs, so irregular data (malformed
// tool_calls entries, unparsable arguments, orphaned results, missing roles)
// is skipped or defaulted instead of failing the call. Only an unknown export
// format ([ErrInvalidFormat]) and an invalid content pattern
// ([ErrInvalidPattern]) are reported as errors.
//
// Token counts come from an optional [TokenCounter]. A failing counter
// contributes 0 for that message and never aborts a computation.
package history
