package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/graph"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/rowbuffer"
	"github.com/vk/streamgridgo/internal/step"
	"golang.org/x/sync/errgroup"
)

// ErrGraphRunning is returned when a graph that has already been started is
// started again or its configuration is changed.
var ErrGraphRunning = errors.New("graph is already running")

// ErrNotStarted is returned by Wait before Start.
var ErrNotStarted = errors.New("executor not started")

// Option configures an Executor.
type Option func(*Executor)

// WithBufferSize overrides the capacity of every hop buffer.
func WithBufferSize(n int) Option {
	return func(e *Executor) { e.bufferSize = n }
}

// WithRunID sets the run identifier instead of a random one.
func WithRunID(id string) Option {
	return func(e *Executor) { e.runID = id }
}

// Executor runs one transformation graph once.
type Executor struct {
	graph      *graph.Graph
	runID      string
	bufferSize int

	started       atomic.Bool
	stopRequested atomic.Bool
	stopOnce      sync.Once

	mu      sync.Mutex
	steps   []*step.Step
	types   map[string]string
	buffers []*rowbuffer.Buffer
	cancel  context.CancelFunc
	group   *errgroup.Group
	parent  context.Context
	start   time.Time
	result  *Result
}

// New validates the graph and prepares an executor for it.
func New(g *graph.Graph, opts ...Option) (*Executor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		graph:      g,
		runID:      uuid.NewString(),
		bufferSize: g.BufferSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunID returns the identifier of the run.
func (e *Executor) RunID() string { return e.runID }

// Inject applies entries to the named step's configuration. It fails with
// ErrGraphRunning once the run has started.
func (e *Executor) Inject(stepName string, entries []*metainject.Entry) error {
	n, ok := e.graph.Step(stepName)
	if !ok {
		return &graph.WiringError{Step: stepName, Reason: "step not found"}
	}
	if e.started.Load() {
		return ErrGraphRunning
	}
	return n.Plugin.ApplyInjection(entries)
}

// prepare creates one step per graph step and one buffer per hop.
func (e *Executor) prepare() error {
	layouts, err := e.graph.Layouts()
	if err != nil {
		return err
	}
	byName := make(map[string]*step.Step)
	types := make(map[string]string)
	var steps []*step.Step
	for _, n := range e.graph.Steps() {
		s := step.New(n.Name, n.Plugin, n.Distribute)
		s.OutputMeta = layouts[n.Name]
		s.InputMeta = e.graph.InputLayout(n.Name, layouts)
		byName[n.Name] = s
		types[n.Name] = n.TypeID
		steps = append(steps, s)
	}
	var buffers []*rowbuffer.Buffer
	for _, h := range e.graph.Hops() {
		b := rowbuffer.New(h.From+" -> "+h.To, e.bufferSize)
		b.SetMeta(layouts[h.From])
		byName[h.From].AddOutput(b)
		byName[h.To].AddInput(b)
		buffers = append(buffers, b)
	}

	e.mu.Lock()
	e.steps = steps
	e.types = types
	e.buffers = buffers
	e.mu.Unlock()
	return nil
}

// Start launches every step. It returns without waiting for them. When the
// graph cannot be prepared the executor stays unstarted.
func (e *Executor) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrGraphRunning
	}
	if err := e.prepare(); err != nil {
		e.started.Store(false)
		return err
	}

	logger := ctxlog.FromContext(ctx).With("run_id", e.runID, "graph", e.graph.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	runCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.parent = ctx
	e.cancel = cancel
	e.start = time.Now()
	e.group = &errgroup.Group{}
	steps := e.steps
	hops := len(e.buffers)
	group := e.group
	e.mu.Unlock()

	logger.Info("🚀 Starting concurrent execution...", "steps", len(steps), "hops", hops)
	for _, s := range steps {
		group.Go(func() error {
			err := s.Run(runCtx)
			if s.State() == step.Failed {
				e.stopAll(runCtx, fmt.Sprintf("step %q failed", s.Name))
			}
			return err
		})
	}
	if e.stopRequested.Load() {
		e.stopAll(ctx, "stop requested before start")
	}
	return nil
}

// Stop aborts every buffer, waking blocked steps, and cancels the run.
// Counters up to this point are still reported by Wait.
func (e *Executor) Stop() {
	e.stopRequested.Store(true)
	e.mu.Lock()
	parent := e.parent
	e.mu.Unlock()
	if parent == nil {
		return
	}
	e.stopAll(parent, "stop requested")
}

func (e *Executor) stopAll(ctx context.Context, reason string) {
	e.stopOnce.Do(func() {
		ctxlog.FromContext(ctx).Warn("Stopping all steps.", "reason", reason)
		e.mu.Lock()
		buffers := e.buffers
		cancel := e.cancel
		e.mu.Unlock()
		for _, b := range buffers {
			b.Abort()
		}
		if cancel != nil {
			cancel()
		}
	})
}

// Wait blocks until every step has reached a terminal state and returns the
// aggregated result. The error is non-nil when the run failed.
func (e *Executor) Wait() (*Result, error) {
	e.mu.Lock()
	group := e.group
	parent := e.parent
	e.mu.Unlock()
	if group == nil {
		return nil, ErrNotStarted
	}
	_ = group.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result != nil {
		return e.result, resultErr(e.result)
	}
	e.cancel()

	res := &Result{
		RunID:   e.runID,
		Elapsed: time.Since(e.start),
		Stopped: e.stopRequested.Load() || errors.Is(parent.Err(), context.Canceled),
	}
	var failedSteps []string
	var symptom error
	for _, s := range e.steps {
		sr := StepResult{
			Name:    s.Name,
			TypeID:  e.types[s.Name],
			State:   s.State(),
			Stats:   s.Stats(),
			Err:     s.Err(),
			Elapsed: s.Elapsed(),
		}
		res.Steps = append(res.Steps, sr)
		res.Stats = res.Stats.Add(sr.Stats)
		if sr.State != step.Failed {
			continue
		}
		res.Failed = true
		if errors.Is(sr.Err, step.ErrUpstreamFailed) {
			if symptom == nil {
				symptom = sr.Err
			}
			continue
		}
		failedSteps = append(failedSteps, s.Name)
		if res.Err == nil {
			res.Err = sr.Err
		}
	}
	if res.Failed && res.Err == nil {
		res.Err = symptom
	}
	if len(failedSteps) > 1 {
		res.Err = fmt.Errorf("execution failed for %s: %w", strings.Join(failedSteps, ", "), res.Err)
	}
	e.result = res

	logger := ctxlog.FromContext(parent)
	switch {
	case res.Failed:
		logger.Error("Execution failed.", "error", res.Err, "elapsed", res.Elapsed)
	case res.Stopped:
		logger.Warn("Execution stopped.", "elapsed", res.Elapsed)
	default:
		logger.Info("🏁 Execution finished.", "read", res.LinesRead, "written", res.LinesWritten, "input", res.LinesInput, "elapsed", res.Elapsed)
	}
	return res, resultErr(res)
}

func resultErr(r *Result) error {
	if r.Failed {
		return r.Err
	}
	return nil
}

// Execute starts the run and waits for it.
func (e *Executor) Execute(ctx context.Context) (*Result, error) {
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	return e.Wait()
}

// Snapshot returns the live state of every step. It is safe to call while
// the run is in progress.
func (e *Executor) Snapshot() []StepResult {
	e.mu.Lock()
	steps := e.steps
	types := e.types
	e.mu.Unlock()
	out := make([]StepResult, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepResult{
			Name:    s.Name,
			TypeID:  types[s.Name],
			State:   s.State(),
			Stats:   s.Stats(),
			Err:     s.Err(),
			Elapsed: s.Elapsed(),
		})
	}
	return out
}
