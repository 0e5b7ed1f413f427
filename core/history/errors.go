package history

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is matched by every error returned for an unknown export
// format name.
//
// Example:
//
//	if errors.Is(err, history.ErrInvalidFormat) {
//	    // ask for one of json, markdown, csv, dict
//	}
var ErrInvalidFormat = errors.New("history: invalid export format")

// ErrInvalidPattern is matched by every error returned for a content pattern
// that does not compile.
var ErrInvalidPattern = errors.New("history: invalid content pattern")

// InvalidFormatError reports an export format outside the supported set.
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("history: invalid export format %q (supported: json, markdown, csv, dict)", e.Format)
}

// Is makes errors.Is(err, ErrInvalidFormat) report true.
func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// InvalidPatternError carries the regular expression that failed to compile.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("history: invalid content pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the compiler error.
func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidPattern) report true.
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}
