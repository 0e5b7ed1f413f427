package history

import (
	"fmt"
)

// ExportDict returns one record per message: the message's wire fields plus
// a metadata map {index, token_count, role} under "_metadata", or under
// "_export_metadata" when any exported message already has "_metadata".
// Records are freshly allocated and share nothing with the transcript.
func (h *History) ExportDict(opts ...ExportOption) (records []map[string]any, err error) {
	cfg := h.exportConfig(opts)
	done := h.observeExport(FormatDict, len(cfg.subset))
	defer func() { done(len(records), err) }()

	key := metadataKey(cfg.subset)
	records = make([]map[string]any, 0, len(cfg.subset))
	for i, msg := range cfg.subset {
		record, err := msg.ToMap()
		if err != nil {
			return nil, fmt.Errorf("history: convert message %d: %w", i, err)
		}
		record[key] = map[string]any{
			"index":       i,
			"token_count": h.countTokens(i, msg),
			"role":        msg.Role.Label(),
		}
		records = append(records, record)
	}
	return records, nil
}
