package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the history engine, the transcript stores and the CLI.

// --- Transcript Attributes ---

const (
	// AttrMessagesCount is the number of messages an operation ran over
	AttrMessagesCount = "history.messages_count"

	// AttrMessageIndex is the position of a message in the transcript being processed
	AttrMessageIndex = "history.message.index"

	// AttrMessageRole is the role of the message being processed
	AttrMessageRole = "history.message.role"

	// AttrToolCallIndex is the position of an entry inside a message's tool_calls
	AttrToolCallIndex = "history.tool_call.index"

	// AttrToolName is the function name of a tool call
	AttrToolName = "history.tool_call.name"

	// AttrSkipReason explains why an irregular entry was ignored
	AttrSkipReason = "history.skip_reason"
)

// --- Export Attributes ---

const (
	// AttrExportFormat is the export format name ("json", "markdown", "csv", "dict")
	AttrExportFormat = "history.export.format"

	// AttrExportSize is the size of the encoded output in bytes (records for dict)
	AttrExportSize = "history.export.size"

	// AttrExportMetadataKey is the metadata key chosen for the call
	AttrExportMetadataKey = "history.export.metadata_key"
)

// --- Memory Attributes ---

const (
	// AttrMemoryMessageRole is the role of the message being stored
	AttrMemoryMessageRole = "memory.message.role"

	// AttrMemoryMessageLength is the length of the message content
	AttrMemoryMessageLength = "memory.message.length"

	// AttrMemoryTotalMessages is the total number of messages in memory
	AttrMemoryTotalMessages = "memory.total_messages"

	// AttrMemorySessionID is the session a persistent store is scoped to
	AttrMemorySessionID = "memory.session_id"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanHistoryExport is the span name for an export call
	SpanHistoryExport = "history.export"

	// SpanHistoryLoad is the span name for loading a transcript from a store
	SpanHistoryLoad = "history.load"
)

// --- Event Names ---

const (
	// EventToolCallSkipped marks a malformed tool_calls entry that was ignored
	EventToolCallSkipped = "history.tool_call.skipped"

	// EventTokenCountFailed marks a token counter failure absorbed as zero
	EventTokenCountFailed = "history.tokens.count_failed" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// EventMemoryAppend marks when a message is appended to memory
	EventMemoryAppend = "memory.append"

	// EventMemoryClear marks when memory is cleared
	EventMemoryClear = "memory.clear"
)

// --- Metric Names ---

const (
	// MetricExportCount counts export calls by format
	MetricExportCount = "history.export.count"

	// MetricExportDuration records export durations in seconds
	MetricExportDuration = "history.export.duration"

	// MetricSkippedToolCalls counts malformed tool_calls entries ignored by the engine
	MetricSkippedToolCalls = "history.tool_call.skipped"

	// MetricTokenCountFailures counts token counter failures
	MetricTokenCountFailures = "history.tokens.count_failures" // #nosec G101 -- Not a credential, token refers to LLM tokens
)
