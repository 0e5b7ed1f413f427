package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNotObject is returned when arguments decode to valid JSON that is not an object.
var ErrNotObject = errors.New("parse: arguments are not a JSON object")

// Arguments decodes the JSON-encoded arguments of a tool call into a map.
//
// Blank input yields an empty map and no error: a call without arguments is
// legal. Numbers are decoded as [json.Number] so large integers keep their
// exact value. Invalid JSON, or JSON that is not an object, is an error.
//
// Example usage:
//
//	args, err := parse.Arguments(`{"path":"a.txt"}`)
func Arguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("parse: invalid arguments JSON: %w", err)
	}
	if decoder.More() {
		return nil, errors.New("parse: invalid arguments JSON: trailing data after value")
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return object, nil
}

// RepairArguments behaves like [Arguments] but, when the input is not valid
// JSON, attempts to repair it with jsonrepair and decodes the repaired text.
// LLMs regularly emit single-quoted keys, trailing commas or truncated objects.
//
// Example usage:
//
//	// Parse an invalid JSON string (will be auto-repaired)
//	args, err := parse.RepairArguments(`{path: 'a.txt',}`)
func RepairArguments(raw string) (map[string]any, error) {
	object, err := Arguments(raw)
	if err == nil || errors.Is(err, ErrNotObject) {
		return object, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return nil, fmt.Errorf("parse: failed to repair arguments: unmarshal error: %w, repair error: %v", err, repairErr)
	}

	object, err = Arguments(repaired)
	if err != nil {
		return nil, fmt.Errorf("parse: repaired arguments still invalid (repaired: %s): %w", repaired, err)
	}
	return object, nil
}

// ArgumentsOrEmpty never fails: anything that cannot be decoded into an
// object becomes an empty map. When repair is true, [RepairArguments] is used.
func ArgumentsOrEmpty(raw string, repair bool) map[string]any {
	var (
		object map[string]any
		err    error
	)
	if repair {
		object, err = RepairArguments(raw)
	} else {
		object, err = Arguments(raw)
	}
	if err != nil {
		return map[string]any{}
	}
	return object
}

// IndentArguments pretty-prints arguments with two-space indentation when
// they are valid JSON and returns them untouched otherwise.
func IndentArguments(raw string) string {
	if !json.Valid([]byte(raw)) {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
