package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxStringLength is the default maximum length for truncated strings
	DefaultMaxStringLength = 500

	// TruncationSuffix is appended to strings shortened by [TruncateString].
	TruncationSuffix = "..."
)

// MarshalNoEscape is json.Marshal without HTML escaping, so "<", ">" and "&"
// survive as written. Non-ASCII text is never escaped by encoding/json.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// TruncateString shortens s to at most maxLen characters (runes, not bytes)
// and appends [TruncationSuffix]. A string whose length equals maxLen is
// returned untouched. If maxLen is zero or negative, [DefaultMaxStringLength]
// is used instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	cut := 0
	for i := range s {
		if cut == maxLen {
			return s[:i] + TruncationSuffix
		}
		cut++
	}
	return s
}

// TitleCase upper-cases the first letter of every space, dash or underscore
// separated word and lower-cases the rest.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		switch {
		case r == ' ' || r == '_' || r == '-':
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
