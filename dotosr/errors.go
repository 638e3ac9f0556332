package dotosr

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedReplay = errors.New("truncated replay")
	ErrDecompression   = errors.New("corrupt replay data")
	ErrMalformedReplay = errors.New("malformed replay")
)

type ReplayError struct {
	Kind   error
	Field  string
	Offset int
	Err    error
}

func (e *ReplayError) Error() string {
	msg := fmt.Sprintf("dotosr: %s at byte %d: %v", e.Field, e.Offset, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReplayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
