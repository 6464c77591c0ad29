package step

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/rowbuffer"
)

type counterSource struct {
	n      int
	failAt int
}

func (c *counterSource) Fields([]*row.Meta) (*row.Meta, error) {
	return row.NewMeta(row.NewValueMeta("n", row.Integer)), nil
}

func (c *counterSource) Generate(ctx context.Context, rc *RunContext) error {
	for i := 0; i < c.n; i++ {
		if c.failAt > 0 && i == c.failAt {
			return errors.New("boom")
		}
		if err := rc.Emit(ctx, row.Row{int64(i)}); err != nil {
			return err
		}
	}
	return nil
}

type collector struct {
	rows      []row.Row
	disposed  bool
	flushed   bool
	rejectOdd bool
}

func (c *collector) Fields(in []*row.Meta) (*row.Meta, error) { return in[0], nil }

func (c *collector) ProcessRow(ctx context.Context, rc *RunContext, r row.Row) error {
	if c.rejectOdd && r[0].(int64)%2 == 1 {
		rc.Reject(ctx, r, errors.New("odd"))
		return nil
	}
	c.rows = append(c.rows, r)
	return rc.Emit(ctx, r)
}

func (c *collector) Flush(context.Context, *RunContext) error { c.flushed = true; return nil }
func (c *collector) Dispose(context.Context)                  { c.disposed = true }

func drain(t *testing.T, b *rowbuffer.Buffer) []row.Row {
	t.Helper()
	var out []row.Row
	for {
		r, ok, err := b.Get(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func TestStep_SourceToTransform(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	src := New("source", &counterSource{n: 5}, false)
	sink := &collector{}
	dst := New("sink", sink, false)
	hop := rowbuffer.New("source -> sink", 2)
	src.AddOutput(hop)
	dst.AddInput(hop)

	// --- Act ---
	errc := make(chan error, 1)
	go func() { errc <- src.Run(ctx) }()
	require.NoError(t, dst.Run(ctx))
	require.NoError(t, <-errc)

	// --- Assert ---
	assert.Equal(t, Finished, src.State())
	assert.Equal(t, Finished, dst.State())
	assert.Equal(t, int64(5), src.Stats().LinesWritten)
	assert.Equal(t, int64(5), dst.Stats().LinesRead)
	assert.Equal(t, int64(0), dst.Stats().LinesWritten, "rows emitted without outputs are not counted")
	require.Len(t, sink.rows, 5)
	for i, r := range sink.rows {
		assert.Equal(t, int64(i), r[0])
	}
	assert.True(t, sink.flushed)
	assert.True(t, sink.disposed)
}

func TestStep_RoundRobinFanIn(t *testing.T) {
	ctx := context.Background()
	a := rowbuffer.New("a", 10)
	b := rowbuffer.New("b", 10)
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Put(ctx, row.Row{int64(i)}))
	}
	require.NoError(t, b.Put(ctx, row.Row{int64(100)}))
	a.Close(false)
	b.Close(false)

	sink := &collector{}
	s := New("merge", sink, false)
	s.AddInput(a)
	s.AddInput(b)

	require.NoError(t, s.Run(ctx))

	var got []any
	for _, r := range sink.rows {
		got = append(got, r[0])
	}
	assert.Equal(t, []any{int64(0), int64(100), int64(1), int64(2)}, got)
}

func TestStep_Outputs(t *testing.T) {
	t.Run("copy to every output", func(t *testing.T) {
		s := New("src", &counterSource{n: 4}, false)
		o1, o2 := rowbuffer.New("o1", 10), rowbuffer.New("o2", 10)
		s.AddOutput(o1)
		s.AddOutput(o2)

		require.NoError(t, s.Run(context.Background()))

		assert.Len(t, drain(t, o1), 4)
		assert.Len(t, drain(t, o2), 4)
		assert.Equal(t, int64(4), s.Stats().LinesWritten)
	})

	t.Run("distribute round-robin", func(t *testing.T) {
		s := New("src", &counterSource{n: 4}, true)
		o1, o2 := rowbuffer.New("o1", 10), rowbuffer.New("o2", 10)
		s.AddOutput(o1)
		s.AddOutput(o2)

		require.NoError(t, s.Run(context.Background()))

		assert.Equal(t, []row.Row{{int64(0)}, {int64(2)}}, drain(t, o1))
		assert.Equal(t, []row.Row{{int64(1)}, {int64(3)}}, drain(t, o2))
	})
}

func TestStep_Rejects(t *testing.T) {
	in := rowbuffer.New("in", 10)
	for i := 0; i < 4; i++ {
		require.NoError(t, in.Put(context.Background(), row.Row{int64(i)}))
	}
	in.Close(false)
	sink := &collector{rejectOdd: true}
	s := New("filter", sink, false)
	s.AddInput(in)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, int64(4), s.Stats().LinesRead)
	assert.Equal(t, int64(2), s.Stats().LinesRejected)
	assert.Len(t, sink.rows, 2)
}

func TestStep_FailurePropagatesDownstream(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	src := New("source", &counterSource{n: 10, failAt: 3}, false)
	dst := New("sink", &collector{}, false)
	hop := rowbuffer.New("hop", 10)
	src.AddOutput(hop)
	dst.AddInput(hop)

	// --- Act ---
	srcErr := src.Run(ctx)
	dstErr := dst.Run(ctx)

	// --- Assert ---
	var rtErr *RuntimeError
	require.ErrorAs(t, srcErr, &rtErr)
	assert.Equal(t, "source", rtErr.Step)
	assert.ErrorContains(t, srcErr, "boom")
	assert.Equal(t, Failed, src.State())
	assert.Equal(t, int64(1), src.Stats().Errors)
	assert.True(t, hop.Failed())

	assert.ErrorIs(t, dstErr, ErrUpstreamFailed)
	assert.Equal(t, Failed, dst.State())
	assert.Equal(t, int64(3), dst.Stats().LinesRead, "rows written before the failure are still delivered")
}

func TestStep_AbortStopsBlockedStep(t *testing.T) {
	in := rowbuffer.New("in", 1)
	s := New("sink", &collector{}, false)
	s.AddInput(in)

	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	in.Abort()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("step did not stop")
	}
	assert.Equal(t, Stopped, s.State())
}

func TestStep_RunTwice(t *testing.T) {
	s := New("src", &counterSource{n: 1}, false)
	require.NoError(t, s.Run(context.Background()))
	assert.ErrorContains(t, s.Run(context.Background()), "already started")
}

func TestState(t *testing.T) {
	assert.Equal(t, "finished", Finished.String())
	assert.False(t, Running.Terminal())
	assert.True(t, Stopped.Terminal())
}
