package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/leofalp/chatlog/internal/utils"
)

// jsonMetadata is the metadata object of JSON exports.
type jsonMetadata struct {
	Index      int `json:"index"`
	TokenCount int `json:"token_count"`
}

// ExportJSON encodes the messages as a JSON array indented with two spaces.
// Every field of every message is kept, including passthrough fields; HTML
// and non-ASCII characters are written unescaped.
func (h *History) ExportJSON(opts ...ExportOption) (text string, err error) {
	cfg := h.exportConfig(opts)
	done := h.observeExport(FormatJSON, len(cfg.subset))
	defer func() { done(len(text), err) }()

	key := metadataKey(cfg.subset)

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, msg := range cfg.subset {
		if cfg.metadata {
			meta, err := utils.MarshalNoEscape(jsonMetadata{Index: i, TokenCount: h.countTokens(i, msg)})
			if err != nil {
				return "", fmt.Errorf("history: encode metadata for message %d: %w", i, err)
			}
			msg.Extra = maps.Clone(msg.Extra)
			if msg.Extra == nil {
				msg.Extra = make(map[string]json.RawMessage, 1)
			}
			msg.Extra[key] = meta
		}

		encoded, err := msg.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("history: encode message %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encoded)
	}
	buf.WriteByte(']')

	var indented bytes.Buffer
	if err := json.Indent(&indented, buf.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("history: indent JSON export: %w", err)
	}
	return indented.String(), nil
}
