package create2

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrInvalidInput = errors.New("create2: invalid input")
	ErrEncoding     = errors.New("create2: encoding failed")
)

// ValidationError reports malformed caller input: a byte string of the wrong
// length, invalid hex, or holders and shares of different lengths.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("create2: invalid ")
	if e.Field != "" {
		b.WriteString(e.Field)
	} else {
		b.WriteString("input")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func invalidf(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// EncodingError reports a value whose shape does not match its declared ABI
// type. It indicates a programming error, not bad user input.
type EncodingError struct {
	Types []string
	Err   error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("create2: abi encode (%s): %v", strings.Join(e.Types, ","), e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is matches ErrEncoding.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}
