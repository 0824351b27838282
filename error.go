package uploader

import (
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Err is the kind of an upload error
type Err int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ErrValidation Err = iota + 1
	ErrInvalidGroupSize
	ErrUngroupableFileCount
	ErrRoundMismatch
	ErrInit
	ErrTransfer
	ErrCancelled
	ErrHash
	ErrComplete
	ErrFailedSamples
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrValidation:
		return "validation error"
	case ErrInvalidGroupSize:
		return "invalid group size"
	case ErrUngroupableFileCount:
		return "ungroupable file count"
	case ErrRoundMismatch:
		return "round mismatch"
	case ErrInit:
		return "init error"
	case ErrTransfer:
		return "transfer error"
	case ErrCancelled:
		return "canceled"
	case ErrHash:
		return "hash error"
	case ErrComplete:
		return "complete error"
	case ErrFailedSamples:
		return "failed samples"
	default:
		return fmt.Sprintf("error %d", int(e))
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// With returns an error of this kind with the arguments appended
func (e Err) With(args ...any) error {
	return &kindError{kind: e, msg: fmt.Sprint(args...)}
}

// Withf returns an error of this kind with a formatted message appended
func (e Err) Withf(format string, args ...any) error {
	return &kindError{kind: e, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether the kind is a sub-kind of target. The grouping errors
// are all validation errors.
func (e Err) Is(target error) bool {
	if kind, ok := target.(Err); ok {
		switch {
		case kind == e:
			return true
		case kind == ErrValidation:
			return e == ErrInvalidGroupSize || e == ErrUngroupableFileCount || e == ErrRoundMismatch
		}
	}
	return false
}

// Kind returns the kind of err, or zero when err carries no kind
func Kind(err error) Err {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	var kind Err
	if errors.As(err, &kind) {
		return kind
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE

type kindError struct {
	kind Err
	msg  string
}

func (e *kindError) Error() string {
	if e.msg == "" {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}
