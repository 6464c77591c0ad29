package step

import (
	"context"

	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/row"
)

// RunContext is handed to a plugin while its step runs. It is only valid on
// the step's own goroutine.
type RunContext struct {
	step *Step
}

// Name returns the step name.
func (rc *RunContext) Name() string { return rc.step.Name }

// InputMeta returns the layout of the rows arriving on the inputs.
func (rc *RunContext) InputMeta() *row.Meta { return rc.step.InputMeta }

// OutputMeta returns the layout of the rows the step writes.
func (rc *RunContext) OutputMeta() *row.Meta { return rc.step.OutputMeta }

// Counters exposes the step counters for plugin-specific accounting.
func (rc *RunContext) Counters() *Counters { return &rc.step.counters }

// Emit writes r to the step's outputs, blocking while they are full.
func (rc *RunContext) Emit(ctx context.Context, r row.Row) error {
	return rc.step.emit(ctx, r)
}

// Reject counts r as rejected and logs the reason at debug level.
func (rc *RunContext) Reject(ctx context.Context, r row.Row, reason error) {
	rc.step.counters.AddRejected(1)
	ctxlog.FromContext(ctx).Debug("Row rejected.", "row", r, "reason", reason)
}
