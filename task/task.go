package task

import (
	"context"
	"errors"
	"fmt"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome is the result of converting exactly one source file.
type Outcome struct {
	Status      Status `json:"status"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Message     string `json:"error,omitempty"` // Description() of Err
	Err         error  `json:"-"`
}

func Succeeded(source, destination string) Outcome {
	return Outcome{Status: StatusSuccess, Source: source, Destination: destination}
}

func Failed(source string, err error) Outcome {
	o := Outcome{Status: StatusFailure, Source: source, Err: err}
	o.Message = o.Description()
	return o
}

// Description renders Err as "<kind>: <message>".
func (o Outcome) Description() string {
	if o.Err == nil {
		return ""
	}
	return Kind(o.Err) + ": " + o.Err.Error()
}

// Kind classifies err for reporting. Errors that carry their own Kind
// method win; context errors are reported as cancellations.
func Kind(err error) string {
	var k interface{ Kind() string }
	switch {
	case errors.As(err, &k):
		return k.Kind()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("task panicked: %v", e.Value) }

func (e *PanicError) Kind() string { return "internal error" }
