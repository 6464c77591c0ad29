package step

import (
	"context"

	"github.com/vk/streamgridgo/internal/row"
)

// Processor is implemented by every step plugin.
type Processor interface {
	// Fields returns the layout of the rows the step writes, given the
	// layouts arriving on its inputs.
	Fields(inputs []*row.Meta) (*row.Meta, error)
}

// Source steps generate rows without reading any input.
type Source interface {
	Processor
	Generate(ctx context.Context, rc *RunContext) error
}

// Transform steps are called once per input row.
type Transform interface {
	Processor
	ProcessRow(ctx context.Context, rc *RunContext, r row.Row) error
}

// Initializer is called once before the first row.
type Initializer interface {
	Init(ctx context.Context, rc *RunContext) error
}

// Flusher is called after the last input row, before outputs are closed.
type Flusher interface {
	Flush(ctx context.Context, rc *RunContext) error
}

// Disposer releases resources. It runs whatever the outcome.
type Disposer interface {
	Dispose(ctx context.Context)
}
