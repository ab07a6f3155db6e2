package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a split request failed.
type ErrorKind string

const (
	KindMalformedInput ErrorKind = "malformed_input"
	KindRasterization  ErrorKind = "rasterization_failure"
	KindEncoding       ErrorKind = "encoding_failure"
	KindStorage        ErrorKind = "storage_failure"
	KindCanceled       ErrorKind = "canceled"
	KindInternal       ErrorKind = "internal"
)

// Error is the single failure a request surfaces. No partial manifest
// accompanies it.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies any error returned by Runner.Run.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindInternal
}
