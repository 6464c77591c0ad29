package metainject

import (
	"fmt"

	"github.com/vk/streamgridgo/internal/row"
)

// UnknownKeyError reports an entry key that the target does not declare.
type UnknownKeyError struct {
	Key string
	// Group is the enclosing group key, empty at the top level.
	Group string
}

func (e *UnknownKeyError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("unknown injection key %q in group %q", e.Key, e.Group)
	}
	return fmt.Sprintf("unknown injection key %q", e.Key)
}

// TypeMismatchError reports a value that cannot be coerced to the type the
// target field expects.
type TypeMismatchError struct {
	Key  string
	From row.Type
	To   row.Type
	Text string
	Err  error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("injection key %q: cannot coerce %s value %q to %s", e.Key, e.From, e.Text, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// InjectionError reports a structurally invalid tree or a configuration the
// target rejected after injection.
type InjectionError struct {
	Key    string
	Reason string
	Err    error
}

func (e *InjectionError) Error() string {
	msg := "injection failed"
	if e.Key != "" {
		msg = fmt.Sprintf("injection key %q", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InjectionError) Unwrap() error { return e.Err }
