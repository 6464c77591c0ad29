package testutil

import (
	"context"
	"sync"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/dummy"
)

// RecorderTypeID is the step type registered by RecorderModule.
const RecorderTypeID = "recorder"

// RecorderModule registers a pass-through step that keeps a copy of every
// row it sees, keyed by step name.
type RecorderModule struct {
	mu   sync.Mutex
	rows map[string][]row.Row
}

func NewRecorderModule() *RecorderModule {
	return &RecorderModule{rows: make(map[string][]row.Row)}
}

func (m *RecorderModule) Register(c *catalog.Catalog) {
	c.Register(RecorderTypeID, "Records rows for tests", func() catalog.Plugin {
		return &recorder{module: m}
	})
}

// Rows returns the rows recorded by the named step.
func (m *RecorderModule) Rows(stepName string) []row.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]row.Row(nil), m.rows[stepName]...)
}

type recorder struct {
	dummy.Step
	module *RecorderModule
}

func (r *recorder) ProcessRow(ctx context.Context, rc *step.RunContext, in row.Row) error {
	r.module.mu.Lock()
	r.module.rows[rc.Name()] = append(r.module.rows[rc.Name()], in.Clone())
	r.module.mu.Unlock()
	return rc.Emit(ctx, in)
}
