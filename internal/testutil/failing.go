package testutil

import (
	"context"
	"errors"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
)

// FailingTypeID is the step type registered by FailingModule.
const FailingTypeID = "failing"

// ErrInjectedFailure is returned by failing steps.
var ErrInjectedFailure = errors.New("injected failure")

// FailingModule registers a source that writes FAIL_AFTER rows with a single
// Integer field "n" and then fails.
type FailingModule struct{}

func (FailingModule) Register(c *catalog.Catalog) {
	c.Register(FailingTypeID, "Fails after a number of rows", func() catalog.Plugin { return &failing{} })
}

type failing struct {
	after int
}

func bindFailing(after *int) *metainject.Table {
	return &metainject.Table{Attributes: []metainject.Attribute{
		metainject.IntAttr("FAIL_AFTER", "Rows written before failing", after),
	}}
}

func (f *failing) InjectionShape() []*metainject.Entry {
	var after int
	return bindFailing(&after).Shape()
}

func (f *failing) ApplyInjection(entries []*metainject.Entry) error {
	after := f.after
	if err := bindFailing(&after).Apply(entries); err != nil {
		return err
	}
	f.after = after
	return nil
}

func (f *failing) Fields([]*row.Meta) (*row.Meta, error) {
	m := row.NewMeta()
	m.Add(row.NewValueMeta("n", row.Integer))
	return m, nil
}

func (f *failing) Generate(ctx context.Context, rc *step.RunContext) error {
	for i := 0; i < f.after; i++ {
		if err := rc.Emit(ctx, row.Row{int64(i)}); err != nil {
			return err
		}
	}
	return ErrInjectedFailure
}
