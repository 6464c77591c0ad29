package step

import (
	"errors"
	"fmt"
)

// ErrUpstreamFailed is reported by a step whose input stream ended with an
// error. It is a symptom of another step's failure, never a root cause.
var ErrUpstreamFailed = errors.New("upstream step failed")

// RuntimeError is an unrecoverable failure of one step.
type RuntimeError struct {
	Step string
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
