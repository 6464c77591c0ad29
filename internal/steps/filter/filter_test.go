package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/rowbuffer"
	"github.com/vk/streamgridgo/internal/step"
)

func runFilter(t *testing.T, condition string, rows ...row.Row) (*step.Step, []row.Row, error) {
	t.Helper()
	p := New()
	require.NoError(t, metainject.NewRequest(p).Set("CONDITION", condition).Apply())

	in := rowbuffer.New("in", len(rows)+1)
	for _, r := range rows {
		require.NoError(t, in.Put(context.Background(), r))
	}
	in.Close(false)
	out := rowbuffer.New("out", len(rows)+1)

	s := step.New("filter", p, false)
	s.InputMeta = row.NewMeta(row.NewValueMeta("name", row.String), row.NewValueMeta("age", row.Integer))
	s.AddInput(in)
	s.AddOutput(out)
	err := s.Run(context.Background())

	var got []row.Row
	for {
		r, ok, gerr := out.Get(context.Background())
		require.NoError(t, gerr)
		if !ok {
			break
		}
		got = append(got, r)
	}
	return s, got, err
}

func TestStep_ForwardsMatchingRows(t *testing.T) {
	s, got, err := runFilter(t, `age >= 18 && name != "Bert"`,
		row.Row{"Anna", int64(30)},
		row.Row{"Bert", int64(40)},
		row.Row{"Carla", int64(12)},
		row.Row{"Dirk", nil},
	)

	require.NoError(t, err)
	assert.Equal(t, []row.Row{{"Anna", int64(30)}}, got)
	assert.Equal(t, int64(3), s.Stats().LinesRejected)
}

func TestStep_UnknownFieldFailsInit(t *testing.T) {
	s, _, err := runFilter(t, `salary > 10`)

	assert.ErrorContains(t, err, "compile condition")
	assert.Equal(t, step.Failed, s.State())
}

func TestStep_InvalidConditionRejectedAtInjection(t *testing.T) {
	p := New()

	err := metainject.NewRequest(p).Set("CONDITION", "age >=").Apply()

	var injErr *metainject.InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Empty(t, p.Config().Condition)
}
