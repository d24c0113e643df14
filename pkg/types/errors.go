package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure
type ErrorKind string

const (
	KindDecode    ErrorKind = "decode"
	KindInference ErrorKind = "inference"
	KindUnknown   ErrorKind = "unknown"
)

// DecodeError reports an unreadable, corrupt or unsupported image file
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InferenceError reports a captioning or translation backend failure
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// UnknownError wraps anything that does not fit the other kinds, including recovered panics
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// Classify maps an error onto an ErrorKind
func Classify(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return KindDecode
	}
	var ie *InferenceError
	if errors.As(err, &ie) {
		return KindInference
	}
	return KindUnknown
}
