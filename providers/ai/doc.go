// Package ai defines the chat message model shared by every chatlog package:
// [Message], [ToolCall] and [MessageRole], together with a lenient JSON codec.
//
// Transcripts are produced by LLM runtimes and logging pipelines that do not
// always agree on the wire format, so decoding never rejects a message for a
// badly typed field. Values that do not fit the typed fields, and any key the
// model does not know, are kept in [Message.Extra] and written back on encode.
// A tool_calls entry that is not an object with an object "function" member
// decodes as a [ToolCall] whose [ToolCall.WellFormed] reports false.
package ai
