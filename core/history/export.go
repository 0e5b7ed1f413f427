package history

import (
	"context"
	"time"

	"github.com/leofalp/chatlog/internal/utils"
	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/observability"
)

// Export format names accepted by [History.Export].
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatDict     = "dict"
)

// Metadata keys. The export key is used for a whole call as soon as one
// exported message already carries its own MetadataKey.
const (
	MetadataKey       = "_metadata"
	ExportMetadataKey = "_export_metadata"
)

// Formats lists the supported export formats.
func Formats() []string {
	return []string{FormatJSON, FormatMarkdown, FormatCSV, FormatDict}
}

// Output is the result of [History.Export]: Text for the encoded formats,
// Records for dict.
type Output struct {
	Format  string
	Text    string
	Records []map[string]any
}

// ExportOption configures one export call.
type ExportOption func(*exportConfig)

type exportConfig struct {
	subset         []ai.Message
	hasSubset      bool
	metadata       bool
	maxContent     int
	htmlToMarkdown bool
}

// WithSubset exports messages instead of the whole transcript. Message
// indexes in metadata and CSV rows are relative to the subset.
func WithSubset(messages []ai.Message) ExportOption {
	return func(c *exportConfig) {
		c.subset = messages
		c.hasSubset = true
	}
}

// WithMetadata adds per-message metadata (index and token count) to JSON
// and Markdown exports. Dict records always carry it.
func WithMetadata() ExportOption {
	return func(c *exportConfig) {
		c.metadata = true
	}
}

// WithMaxContentLength sets the CSV content limit in characters. Values of
// zero or less select the default of 500.
func WithMaxContentLength(n int) ExportOption {
	return func(c *exportConfig) {
		c.maxContent = n
	}
}

// WithHTMLToMarkdown converts message bodies containing HTML tags to
// Markdown in Markdown exports.
func WithHTMLToMarkdown() ExportOption {
	return func(c *exportConfig) {
		c.htmlToMarkdown = true
	}
}

func (h *History) exportConfig(opts []ExportOption) exportConfig {
	cfg := exportConfig{maxContent: utils.DefaultMaxStringLength}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.hasSubset {
		cfg.subset = h.messages
	}
	if cfg.maxContent <= 0 {
		cfg.maxContent = utils.DefaultMaxStringLength
	}
	return cfg
}

// Export encodes the transcript, or the subset given with [WithSubset], in
// one of "json", "markdown", "csv" or "dict". Format names are
// case-sensitive; any other name yields an [*InvalidFormatError].
func (h *History) Export(format string, opts ...ExportOption) (Output, error) {
	out := Output{Format: format}
	var err error
	switch format {
	case FormatJSON:
		out.Text, err = h.ExportJSON(opts...)
	case FormatMarkdown:
		out.Text, err = h.ExportMarkdown(opts...)
	case FormatCSV:
		out.Text, err = h.ExportCSV(opts...)
	case FormatDict:
		out.Records, err = h.ExportDict(opts...)
	default:
		return Output{}, &InvalidFormatError{Format: format}
	}
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

// metadataKey picks the key used for export metadata across one call.
func metadataKey(messages []ai.Message) string {
	for _, msg := range messages {
		if msg.HasExtra(MetadataKey) {
			return ExportMetadataKey
		}
	}
	return MetadataKey
}

// observeExport opens an export span when an observer is configured. The
// returned function closes it, recording the output size or the error.
func (h *History) observeExport(format string, count int) func(size int, err error) {
	if h.observer == nil {
		return func(int, error) {}
	}

	start := time.Now()
	ctx, span := h.observer.StartSpan(context.Background(), observability.SpanHistoryExport,
		observability.String(observability.AttrExportFormat, format),
		observability.Int(observability.AttrMessagesCount, count),
	)
	return func(size int, err error) {
		defer span.End()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "export failed")
			return
		}
		span.SetAttributes(observability.Int(observability.AttrExportSize, size))
		span.SetStatus(observability.StatusOK, "")
		h.observer.Counter(observability.MetricExportCount).Add(ctx, 1,
			observability.String(observability.AttrExportFormat, format),
		)
		h.observer.Histogram(observability.MetricExportDuration).Record(ctx, time.Since(start).Seconds(),
			observability.String(observability.AttrExportFormat, format),
		)
	}
}
