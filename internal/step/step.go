package step

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/rowbuffer"
)

// Step is one running instance of a step plugin, wired to its buffers.
type Step struct {
	Name   string
	Plugin Processor
	// Distribute writes each output row to one output, round-robin, instead
	// of copying it to every output.
	Distribute bool

	InputMeta  *row.Meta
	OutputMeta *row.Meta

	inputs   []*rowbuffer.Buffer
	outputs  []*rowbuffer.Buffer
	nextOut  int
	state    atomic.Int32
	counters Counters

	mu      sync.Mutex
	err     error
	elapsed time.Duration
}

// New creates an idle step.
func New(name string, plugin Processor, distribute bool) *Step {
	return &Step{Name: name, Plugin: plugin, Distribute: distribute}
}

// AddInput attaches a buffer the step reads from.
func (s *Step) AddInput(b *rowbuffer.Buffer) { s.inputs = append(s.inputs, b) }

// AddOutput attaches a buffer the step writes to.
func (s *Step) AddOutput(b *rowbuffer.Buffer) { s.outputs = append(s.outputs, b) }

// Inputs returns the attached input buffers.
func (s *Step) Inputs() []*rowbuffer.Buffer { return s.inputs }

// Outputs returns the attached output buffers.
func (s *Step) Outputs() []*rowbuffer.Buffer { return s.outputs }

// State returns the current lifecycle state.
func (s *Step) State() State { return State(s.state.Load()) }

// Stats returns a snapshot of the step's counters.
func (s *Step) Stats() Stats { return s.counters.Snapshot() }

// Err returns the error the step ended with, if any.
func (s *Step) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Elapsed returns how long the step ran.
func (s *Step) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Run executes the step to completion. It closes every output buffer before
// returning, flagging the stream as failed unless the step finished cleanly.
// A step ended by Abort or context cancellation is Stopped, not Failed, and
// Run returns nil for it.
func (s *Step) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("step %q: already started", s.Name)
	}
	logger := ctxlog.FromContext(ctx).With("step", s.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("▶️ Starting step")
	start := time.Now()

	rc := &RunContext{step: s}
	err := s.run(ctx, rc)

	if d, ok := s.Plugin.(Disposer); ok {
		d.Dispose(ctx)
	}

	final := Finished
	switch {
	case err == nil:
	case errors.Is(err, rowbuffer.ErrStopped), errors.Is(err, context.Canceled):
		final = Stopped
		err = nil
	default:
		final = Failed
		s.counters.AddErrors(1)
		err = &RuntimeError{Step: s.Name, Err: err}
	}
	for _, out := range s.outputs {
		out.Close(final != Finished)
	}

	s.mu.Lock()
	s.err = err
	s.elapsed = time.Since(start)
	s.mu.Unlock()
	s.state.Store(int32(final))

	stats := s.Stats()
	switch final {
	case Finished:
		logger.Info("✅ Finished step", "read", stats.LinesRead, "written", stats.LinesWritten, "input", stats.LinesInput, "rejected", stats.LinesRejected, "duration", s.Elapsed())
	case Stopped:
		logger.Warn("⏹️ Step stopped", "read", stats.LinesRead, "written", stats.LinesWritten)
	case Failed:
		if errors.Is(err, ErrUpstreamFailed) {
			logger.Warn("Step ended after upstream failure.")
		} else {
			logger.Error("❌ Step failed", "error", err)
		}
	}
	return err
}

func (s *Step) run(ctx context.Context, rc *RunContext) error {
	if in, ok := s.Plugin.(Initializer); ok {
		if err := in.Init(ctx, rc); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	switch p := s.Plugin.(type) {
	case Source:
		if err := p.Generate(ctx, rc); err != nil {
			return err
		}
	case Transform:
		if err := s.consume(ctx, rc, p); err != nil {
			return err
		}
	default:
		return fmt.Errorf("plugin %T neither generates nor transforms rows", s.Plugin)
	}
	if f, ok := s.Plugin.(Flusher); ok {
		if err := f.Flush(ctx, rc); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

// consume reads one row per input per pass until every input is exhausted.
func (s *Step) consume(ctx context.Context, rc *RunContext, p Transform) error {
	active := append([]*rowbuffer.Buffer(nil), s.inputs...)
	for len(active) > 0 {
		for i := 0; i < len(active); {
			in := active[i]
			r, ok, err := in.Get(ctx)
			if err != nil {
				return err
			}
			if !ok {
				if in.Failed() {
					// A cancelled run closes streams early; that is not a failure.
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return fmt.Errorf("input %s: %w", in.Name, ErrUpstreamFailed)
				}
				active = append(active[:i], active[i+1:]...)
				continue
			}
			s.counters.AddRead(1)
			if err := p.ProcessRow(ctx, rc, r); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func (s *Step) emit(ctx context.Context, r row.Row) error {
	switch {
	case len(s.outputs) == 0:
		return nil
	case s.Distribute:
		out := s.outputs[s.nextOut%len(s.outputs)]
		s.nextOut++
		if err := out.Put(ctx, r); err != nil {
			return err
		}
	default:
		for i, out := range s.outputs {
			next := r
			if i > 0 {
				next = r.Clone()
			}
			if err := out.Put(ctx, next); err != nil {
				return err
			}
		}
	}
	s.counters.AddWritten(1)
	return nil
}
