package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/steps/dummy"
	"github.com/vk/streamgridgo/internal/steps/rowgenerator"
)

func generator(t *testing.T, fields ...string) *rowgenerator.Step {
	t.Helper()
	p := rowgenerator.New()
	records := make([]metainject.Record, len(fields))
	for i, f := range fields {
		records[i] = metainject.Record{"FIELD_NAME": f}
	}
	require.NoError(t, metainject.NewRequest(p).SetRecords("FIELDS", records...).Apply())
	return p
}

func TestAddStep(t *testing.T) {
	g := New("test")

	n, err := g.AddStep("a", dummy.TypeID, dummy.New(), false)
	require.NoError(t, err)
	assert.Equal(t, "a", n.Name)

	_, err = g.AddStep("a", dummy.TypeID, dummy.New(), false)
	var wErr *WiringError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, "a", wErr.Step)
	assert.ErrorContains(t, err, "duplicate step name")

	_, err = g.AddStep("", dummy.TypeID, dummy.New(), false)
	assert.ErrorAs(t, err, &wErr)
}

func TestAddHop(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New("test")
		for _, name := range []string{"a", "b", "c"} {
			_, err := g.AddStep(name, dummy.TypeID, dummy.New(), false)
			require.NoError(t, err)
		}

		require.NoError(t, g.AddHop("a", "c"))
		require.NoError(t, g.AddHop("b", "c"))

		assert.Equal(t, []string{"a", "b"}, g.Inputs("c"))
		assert.Equal(t, []string{"c"}, g.Outputs("a"))
		assert.Equal(t, []Hop{{"a", "c"}, {"b", "c"}}, g.Hops())
	})

	t.Run("error cases", func(t *testing.T) {
		g := New("test")
		_, _ = g.AddStep("a", dummy.TypeID, dummy.New(), false)
		_, _ = g.AddStep("b", dummy.TypeID, dummy.New(), false)
		require.NoError(t, g.AddHop("a", "b"))

		var wErr *WiringError
		assert.ErrorAs(t, g.AddHop("dne", "a"), &wErr)
		assert.ErrorContains(t, g.AddHop("dne", "a"), "source step not found")
		assert.ErrorContains(t, g.AddHop("a", "dne"), "target step not found")
		assert.ErrorContains(t, g.AddHop("a", "a"), "cannot feed itself")
		assert.ErrorContains(t, g.AddHop("a", "b"), "duplicate hop")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New("empty").DetectCycles())
	})

	t.Run("simple cycle", func(t *testing.T) {
		g := New("cycle")
		for _, name := range []string{"a", "b", "c"} {
			_, _ = g.AddStep(name, dummy.TypeID, dummy.New(), false)
		}
		require.NoError(t, g.AddHop("a", "b"))
		require.NoError(t, g.AddHop("b", "c"))
		require.NoError(t, g.AddHop("c", "a"))

		err := g.DetectCycles()
		var wErr *WiringError
		require.ErrorAs(t, err, &wErr)
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestTopoOrder(t *testing.T) {
	g := New("diamond")
	for _, name := range []string{"sink", "left", "right", "source"} {
		_, _ = g.AddStep(name, dummy.TypeID, dummy.New(), false)
	}
	require.NoError(t, g.AddHop("source", "left"))
	require.NoError(t, g.AddHop("source", "right"))
	require.NoError(t, g.AddHop("left", "sink"))
	require.NoError(t, g.AddHop("right", "sink"))

	order, err := g.TopoOrder()
	require.NoError(t, err)

	pos := map[string]int{}
	for i, n := range order {
		pos[n.Name] = i
	}
	require.Len(t, pos, 4)
	for _, h := range g.Hops() {
		assert.Less(t, pos[h.From], pos[h.To], "%s must come before %s", h.From, h.To)
	}
}

func TestStepFields(t *testing.T) {
	g := New("fields")
	_, _ = g.AddStep("gen", rowgenerator.TypeID, generator(t, "id", "name"), false)
	_, _ = g.AddStep("pass", dummy.TypeID, dummy.New(), false)
	require.NoError(t, g.AddHop("gen", "pass"))

	m, err := g.StepFields("pass")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, m.Names())

	_, err = g.StepFields("missing")
	assert.ErrorContains(t, err, "step not found")
}

func TestValidate_IncompatibleFanIn(t *testing.T) {
	g := New("fan-in")
	_, _ = g.AddStep("a", rowgenerator.TypeID, generator(t, "id"), false)
	_, _ = g.AddStep("b", rowgenerator.TypeID, generator(t, "id", "extra"), false)
	_, _ = g.AddStep("merge", dummy.TypeID, dummy.New(), false)
	require.NoError(t, g.AddHop("a", "merge"))
	require.NoError(t, g.AddHop("b", "merge"))

	err := g.Validate()

	var wErr *WiringError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, "merge", wErr.Step)
	assert.ErrorContains(t, err, "incompatible layouts")
}
