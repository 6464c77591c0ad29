package executor

import (
	"time"

	"github.com/vk/streamgridgo/internal/step"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name    string
	TypeID  string
	State   step.State
	Stats   step.Stats
	Err     error
	Elapsed time.Duration
}

// Result is the outcome of a run. The embedded Stats are summed over all
// steps. A Result is not modified after Wait returns it.
type Result struct {
	RunID string
	step.Stats

	// Failed is set when at least one step failed.
	Failed bool
	// Stopped is set when the run was stopped before completing.
	Stopped bool
	// Err is the root cause of a failed run: the first step failure that is
	// not a consequence of another step failing.
	Err     error
	Elapsed time.Duration
	Steps   []StepResult
}

// Step returns the result of the named step.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
