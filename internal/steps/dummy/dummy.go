// Package dummy implements the "dummy" step, which passes rows through
// unchanged. It is typically used as a sink or a junction.
package dummy

import (
	"context"
	"fmt"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
)

const TypeID = "dummy"

type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Passes rows through unchanged", func() catalog.Plugin { return New() })
}

// Step forwards every input row.
type Step struct{}

var _ step.Transform = (*Step)(nil)

func New() *Step { return &Step{} }

// InjectionShape declares no keys: the step has nothing to configure.
func (s *Step) InjectionShape() []*metainject.Entry { return nil }

func (s *Step) ApplyInjection(entries []*metainject.Entry) error {
	return (&metainject.Table{}).Apply(entries)
}

// Fields returns the layout of the first input; all inputs must agree.
func (s *Step) Fields(inputs []*row.Meta) (*row.Meta, error) {
	if len(inputs) == 0 {
		return row.NewMeta(), nil
	}
	for _, in := range inputs[1:] {
		if err := inputs[0].Compatible(in); err != nil {
			return nil, fmt.Errorf("inputs have different layouts: %w", err)
		}
	}
	return inputs[0].Clone(), nil
}

func (s *Step) ProcessRow(ctx context.Context, rc *step.RunContext, r row.Row) error {
	return rc.Emit(ctx, r)
}
