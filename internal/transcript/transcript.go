package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/chatlog/internal/utils"
	"github.com/leofalp/chatlog/providers/ai"
)

// Format names a transcript encoding.
type Format string

const (
	// FormatAuto selects the format from the file extension, falling back
	// to FormatJSON.
	FormatAuto Format = ""

	// FormatJSON is a JSON array of messages, or an object whose
	// "messages" member is that array.
	FormatJSON Format = "json"

	// FormatJSONL is one JSON message per line. Blank lines are skipped.
	FormatJSONL Format = "jsonl"

	// FormatYAML is the YAML rendition of FormatJSON.
	FormatYAML Format = "yaml"
)

// maxLineSize bounds a single JSONL line; tool results can be large.
const maxLineSize = 16 * 1024 * 1024

// ErrUnsupportedFormat is returned for format names outside json, jsonl and yaml.
var ErrUnsupportedFormat = errors.New("transcript: unsupported format")

// ParseFormat maps a user supplied name to a Format. "ndjson" and "yml"
// are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// DetectFormat returns the format implied by the extension of path.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile decodes the transcript stored at path, detecting its format from
// the extension.
func ReadFile(path string) ([]ai.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	messages, err := Decode(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return messages, nil
}

// Read decodes a whole transcript from r. FormatAuto is treated as FormatJSON.
func Read(r io.Reader, format Format) ([]ai.Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transcript: read: %w", err)
	}
	return Decode(data, format)
}

// Decode parses data in the given format. Individual messages are decoded
// leniently; only a structurally invalid document is an error.
func Decode(data []byte, format Format) ([]ai.Message, error) {
	switch format {
	case FormatAuto, FormatJSON:
		return decodeJSON(data)
	case FormatJSONL:
		return decodeJSONL(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeJSON(data []byte) ([]ai.Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []ai.Message{}, nil
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Messages json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("transcript: invalid JSON: %w", err)
		}
		if len(envelope.Messages) == 0 || envelope.Messages[0] != '[' {
			return nil, errors.New(`transcript: JSON object has no "messages" array`)
		}
		trimmed = envelope.Messages
	}

	messages, err := ai.DecodeMessages(trimmed)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return messages, nil
}

func decodeJSONL(data []byte) ([]ai.Message, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	messages := []ai.Message{}
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var msg ai.Message
		if err := json.Unmarshal(text, &msg); err != nil {
			return nil, fmt.Errorf("transcript: line %d: %w", line, err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("transcript: line %d: %w", line+1, err)
	}
	return messages, nil
}

// decodeYAML converts the YAML document to JSON and decodes that, so both
// encodings share one message codec.
func decodeYAML(data []byte) ([]ai.Message, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("transcript: invalid YAML: %w", err)
	}
	if document == nil {
		return []ai.Message{}, nil
	}

	encoded, err := utils.MarshalNoEscape(normalizeYAML(document))
	if err != nil {
		return nil, fmt.Errorf("transcript: convert YAML: %w", err)
	}
	return decodeJSON(encoded)
}

// normalizeYAML turns maps with non-string keys into JSON-compatible maps.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
