package graph

import "fmt"

// WiringError reports a structurally invalid graph: a duplicate or unknown
// step, an invalid hop, a cycle, or inputs with incompatible row layouts.
type WiringError struct {
	Step   string
	Reason string
	Err    error
}

func (e *WiringError) Error() string {
	msg := "invalid graph"
	if e.Step != "" {
		msg = fmt.Sprintf("invalid graph at step %q", e.Step)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WiringError) Unwrap() error { return e.Err }
