package executor

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/graph"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/csvinput"
	"github.com/vk/streamgridgo/internal/steps/delay"
	"github.com/vk/streamgridgo/internal/steps/dummy"
	"github.com/vk/streamgridgo/internal/steps/rowgenerator"
)

// delayedLine builds generator -> delay -> dummy.
func delayedLine(t *testing.T, rows, delayMS int) *graph.Graph {
	t.Helper()
	gen := rowgenerator.New()
	require.NoError(t, metainject.NewRequest(gen).
		Set("LIMIT", strconv.Itoa(rows)).
		SetRecords("FIELDS", metainject.Record{"FIELD_NAME": "n", "FIELD_TYPE": "Integer", "FIELD_VALUE": "1"}).
		Apply())
	wait := delay.New()
	require.NoError(t, metainject.NewRequest(wait).Set("DELAY_MS", strconv.Itoa(delayMS)).Apply())

	g := graph.New("delayed line")
	_, err := g.AddStep("generate", rowgenerator.TypeID, gen, false)
	require.NoError(t, err)
	_, err = g.AddStep("wait", delay.TypeID, wait, false)
	require.NoError(t, err)
	_, err = g.AddStep("sink", dummy.TypeID, dummy.New(), false)
	require.NoError(t, err)
	require.NoError(t, g.AddHop("generate", "wait"))
	require.NoError(t, g.AddHop("wait", "sink"))
	return g
}

func TestExecute_DelayedLineWithSmallBuffers(t *testing.T) {
	// --- Arrange ---
	g := delayedLine(t, 20, 2)
	exec, err := New(g, WithBufferSize(2), WithRunID("run-1"))
	require.NoError(t, err)

	// --- Act ---
	res, err := exec.Execute(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.False(t, res.Failed)
	assert.False(t, res.Stopped)
	assert.Nil(t, res.Err)
	assert.Equal(t, int64(40), res.LinesRead)
	assert.Equal(t, int64(40), res.LinesWritten)
	assert.GreaterOrEqual(t, res.Elapsed, 40*time.Millisecond)

	require.Len(t, res.Steps, 3)
	for _, s := range res.Steps {
		assert.Equal(t, step.Finished, s.State, s.Name)
	}
	sink, ok := res.Step("sink")
	require.True(t, ok)
	assert.Equal(t, int64(20), sink.Stats.LinesRead)
	assert.Equal(t, dummy.TypeID, sink.TypeID)
}

func TestStop_WakesBlockedSteps(t *testing.T) {
	// --- Arrange ---
	g := delayedLine(t, 1_000_000, 10)
	exec, err := New(g, WithBufferSize(2))
	require.NoError(t, err)
	require.NoError(t, exec.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)

	// --- Act ---
	exec.Stop()
	done := make(chan struct{})
	var res *Result
	go func() {
		res, err = exec.Wait()
		close(done)
	}()

	// --- Assert ---
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.False(t, res.Failed)
	for _, s := range res.Steps {
		assert.True(t, s.State.Terminal(), s.Name)
	}
	gen, _ := res.Step("generate")
	assert.Equal(t, step.Stopped, gen.State, "generator must be woken from its blocked write")
	assert.Less(t, gen.Stats.LinesWritten, int64(1_000_000))
}

func TestExecute_ParentContextCancellation(t *testing.T) {
	g := delayedLine(t, 1_000_000, 10)
	exec, err := New(g, WithBufferSize(2))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(30*time.Millisecond, cancel)

	res, err := exec.Execute(ctx)

	require.NoError(t, err)
	assert.True(t, res.Stopped)
}

func TestExecute_FailureStopsRunAndReportsRootCause(t *testing.T) {
	// --- Arrange ---
	input := csvinput.New()
	require.NoError(t, metainject.NewRequest(input).
		Set("FILENAME", filepath.Join(t.TempDir(), "missing.csv")).
		SetRecords("FIELDS", metainject.Record{"FIELD_NAME": "a"}).
		Apply())
	g := graph.New("failing")
	_, _ = g.AddStep("input", csvinput.TypeID, input, false)
	_, _ = g.AddStep("sink", dummy.TypeID, dummy.New(), false)
	require.NoError(t, g.AddHop("input", "sink"))
	exec, err := New(g)
	require.NoError(t, err)

	// --- Act ---
	res, err := exec.Execute(context.Background())

	// --- Assert ---
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Failed)
	var rtErr *step.RuntimeError
	require.ErrorAs(t, res.Err, &rtErr)
	assert.Equal(t, "input", rtErr.Step)
	assert.GreaterOrEqual(t, res.Errors, int64(1))

	sink, _ := res.Step("sink")
	assert.True(t, sink.State == step.Stopped || sink.State == step.Failed, "sink ended as %s", sink.State)
}

func TestExecutor_RunningGraphRejectsChanges(t *testing.T) {
	g := delayedLine(t, 5, 0)
	exec, err := New(g)
	require.NoError(t, err)

	require.NoError(t, exec.Inject("wait", []*metainject.Entry{metainject.NewLeaf("DELAY_MS", "1", row.Integer, "")}))
	require.NoError(t, exec.Start(context.Background()))

	assert.ErrorIs(t, exec.Start(context.Background()), ErrGraphRunning)
	assert.ErrorIs(t, exec.Inject("wait", nil), ErrGraphRunning)

	res, err := exec.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.LinesRead)
	assert.NotEmpty(t, exec.Snapshot())
}

func TestExecutor_Errors(t *testing.T) {
	t.Run("wait before start", func(t *testing.T) {
		exec, err := New(graph.New("empty"))
		require.NoError(t, err)
		_, err = exec.Wait()
		assert.ErrorIs(t, err, ErrNotStarted)
	})

	t.Run("cyclic graph", func(t *testing.T) {
		g := graph.New("cycle")
		_, _ = g.AddStep("a", dummy.TypeID, dummy.New(), false)
		_, _ = g.AddStep("b", dummy.TypeID, dummy.New(), false)
		require.NoError(t, g.AddHop("a", "b"))
		require.NoError(t, g.AddHop("b", "a"))

		_, err := New(g)
		var wErr *graph.WiringError
		assert.ErrorAs(t, err, &wErr)
	})

	t.Run("inject into unknown step", func(t *testing.T) {
		exec, err := New(graph.New("empty"))
		require.NoError(t, err)
		var wErr *graph.WiringError
		assert.ErrorAs(t, exec.Inject("nope", nil), &wErr)
	})
}

func TestExecutor_FailedStartCanBeRetried(t *testing.T) {
	// --- Arrange ---
	fields := func(typ string) []*metainject.Entry {
		entries, err := metainject.NewRequest(rowgenerator.New()).
			Set("LIMIT", "3").
			SetRecords("FIELDS", metainject.Record{"FIELD_NAME": "n", "FIELD_TYPE": typ, "FIELD_VALUE": "1"}).
			Build()
		require.NoError(t, err)
		return entries
	}
	g := graph.New("fan-in")
	for _, name := range []string{"left", "right"} {
		gen := rowgenerator.New()
		require.NoError(t, gen.ApplyInjection(fields("Integer")))
		_, err := g.AddStep(name, rowgenerator.TypeID, gen, false)
		require.NoError(t, err)
	}
	_, err := g.AddStep("sink", dummy.TypeID, dummy.New(), false)
	require.NoError(t, err)
	require.NoError(t, g.AddHop("left", "sink"))
	require.NoError(t, g.AddHop("right", "sink"))
	exec, err := New(g)
	require.NoError(t, err)
	require.NoError(t, exec.Inject("right", fields("String")))

	// --- Act ---
	firstErr := exec.Start(context.Background())
	secondErr := exec.Start(context.Background())

	// --- Assert ---
	var wErr *graph.WiringError
	require.ErrorAs(t, firstErr, &wErr)
	assert.Contains(t, wErr.Reason, "incompatible layouts")
	require.ErrorAs(t, secondErr, &wErr, "a failed start must not leave the executor marked running")
	_, err = exec.Wait()
	assert.ErrorIs(t, err, ErrNotStarted)

	t.Run("configuration can be fixed and the run started", func(t *testing.T) {
		// --- Arrange ---
		require.NoError(t, exec.Inject("right", fields("Integer")))

		// --- Act ---
		res, err := exec.Execute(context.Background())

		// --- Assert ---
		require.NoError(t, err)
		sink, ok := res.Step("sink")
		require.True(t, ok)
		assert.Equal(t, int64(6), sink.Stats.LinesRead)
	})
}
