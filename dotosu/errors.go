package dotosu

import (
	"errors"
	"fmt"
)

var (
	ErrVersionUnsupported = errors.New("unsupported format version")
	ErrMalformedSection   = errors.New("malformed section")
	ErrMissingField       = errors.New("missing field")
	ErrMalformedField     = errors.New("malformed field")
	ErrEncoding           = errors.New("invalid text encoding")

	errNotFinite  = errors.New("not a finite number")
	errOutOfRange = errors.New("value out of range")
)

// ParseError reports a structural problem at a specific line.
type ParseError struct {
	Kind    error
	Section string
	Line    int
	Text    string
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("dotosu: line %d: %v: %q", e.Line, e.Kind, e.Text)
	}
	return fmt.Sprintf("dotosu: line %d [%s]: %v: %q", e.Line, e.Section, e.Kind, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Kind }

// FieldError reports a missing or unparsable typed field. For CSV sections
// Key names the column.
type FieldError struct {
	Kind    error
	Section string
	Key     string
	Value   string
	Err     error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("dotosu: [%s] %s: %v", e.Section, e.Key, e.Kind)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func malformed(section, key, value string, err error) *FieldError {
	return &FieldError{Kind: ErrMalformedField, Section: section, Key: key, Value: value, Err: err}
}
