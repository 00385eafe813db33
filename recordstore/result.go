// ABOUTME: Per-item outcomes for batch create, update, and delete calls
// ABOUTME: Provides BatchResult helpers and a BatchError that unwraps to sentinels
package recordstore

import (
	"fmt"
	"strings"
)

// Outcome codes for failed items.
const (
	CodeNotFound = "NOT_FOUND"
	CodeInvalid  = "INVALID"
	CodeFailed   = "FAILED"
)

// Outcome is the result for one item of a batch call. Record is set only
// when Success is true.
type Outcome struct {
	Success bool   `json:"success"`
	Record  Record `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(r Record) Outcome {
	return Outcome{Success: true, Record: r}
}

// Failed builds a failed outcome.
func Failed(code, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

type BatchResult struct {
	Outcomes []Outcome `json:"results"`
}

// Records returns the records of successful outcomes in input order.
func (b BatchResult) Records() []Record {
	var out []Record
	for _, o := range b.Outcomes {
		if o.Success {
			out = append(out, o.Record)
		}
	}
	return out
}

// Failures returns the failed outcomes in input order.
func (b BatchResult) Failures() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// First returns the first outcome; an empty batch reports a failure.
func (b BatchResult) First() Outcome {
	if len(b.Outcomes) == 0 {
		return Failed(CodeFailed, "empty result")
	}
	return b.Outcomes[0]
}

// Err is nil when every item succeeded.
func (b BatchResult) Err() error {
	failed := b.Failures()
	if len(failed) == 0 {
		return nil
	}
	return &BatchError{Failed: failed, Total: len(b.Outcomes)}
}

// BatchError reports the failed items of a batch call.
type BatchError struct {
	Failed []Outcome
	Total  int
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		msgs = append(msgs, o.Message)
	}
	return fmt.Sprintf("%d of %d records failed: %s", len(e.Failed), e.Total, strings.Join(msgs, "; "))
}

// Is lets errors.Is match ErrRecordNotFound or ErrInvalidRecord when every
// failure carries that code.
func (e *BatchError) Is(target error) bool {
	var code string
	switch target {
	case ErrRecordNotFound:
		code = CodeNotFound
	case ErrInvalidRecord:
		code = CodeInvalid
	default:
		return false
	}
	for _, o := range e.Failed {
		if o.Code != code {
			return false
		}
	}
	return len(e.Failed) > 0
}
