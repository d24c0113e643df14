package types

import (
	"time"
)

// CaptionRequest is one user selection handed to the runner
type CaptionRequest struct {
	ID          string    `json:"id"`
	ImagePath   string    `json:"image_path"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Status is the lifecycle state of a request
type Status int

const (
	Idle Status = iota
	Running
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens without a new submit
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// CaptionResult is the single outcome of a CaptionRequest.
//
// When Status is Completed, English and Arabic are both non-empty.
// When Status is Failed, Kind and Message describe what went wrong.
type CaptionResult struct {
	Request CaptionRequest `json:"request"`
	Status  Status         `json:"status"`
	English string         `json:"english,omitempty"`
	Arabic  string         `json:"arabic,omitempty"`
	Kind    ErrorKind      `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Success builds a completed result
func Success(req CaptionRequest, english, arabic string) CaptionResult {
	return CaptionResult{
		Request: req,
		Status:  Completed,
		English: english,
		Arabic:  arabic,
	}
}

// Failure builds a failed result from any error
func Failure(req CaptionRequest, err error) CaptionResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return CaptionResult{
		Request: req,
		Status:  Failed,
		Kind:    Classify(err),
		Message: msg,
	}
}

// OK reports whether the result is a success
func (r CaptionResult) OK() bool {
	return r.Status == Completed
}
