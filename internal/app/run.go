package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/executor"
	"github.com/vk/streamgridgo/internal/graph"
	"github.com/vk/streamgridgo/internal/hcl"
	"github.com/vk/streamgridgo/internal/metainject"
)

// Run loads the configured transformation, applies the step overrides and
// executes it once. The result is returned even when the run failed.
func (a *App) Run(ctx context.Context) (*executor.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.healthCheckServer(); err != nil {
		return nil, err
	}
	defer a.closeHealthCheckServer()

	g, err := hcl.NewLoader(a.catalog).Load(ctx, a.config.TransformationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load transformation: %w", err)
	}
	if err := a.applyOverrides(g); err != nil {
		return nil, err
	}
	a.logger.Debug("Transformation graph built.", "graph", g.Name, "steps", len(g.Steps()))

	var opts []executor.Option
	if a.config.BufferSize > 0 {
		opts = append(opts, executor.WithBufferSize(a.config.BufferSize))
	}
	exec, err := executor.New(g, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid transformation: %w", err)
	}

	a.metrics.Track(exec)
	defer a.metrics.Track(nil)

	a.logger.Debug("Executor starting run.", "graph", g.Name, "run_id", exec.RunID())
	res, err := exec.Execute(ctx)
	if res == nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.metrics.ObserveResult(g.Name, res)
	for _, s := range res.Steps {
		a.logger.Info("Step summary.",
			"step", s.Name,
			"state", s.State.String(),
			"read", s.Stats.LinesRead,
			"written", s.Stats.LinesWritten,
			"input", s.Stats.LinesInput,
			"output", s.Stats.LinesOutput,
			"rejected", s.Stats.LinesRejected,
			"errors", s.Stats.Errors,
		)
	}
	if err != nil {
		return res, fmt.Errorf("execution failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return res, nil
}

// applyOverrides injects the command-line settings, one request per step.
// Every request is built before any step is touched, so a bad setting
// leaves the whole graph unchanged.
func (a *App) applyOverrides(g *graph.Graph) error {
	overrides, err := ParseOverrides(a.config.Overrides)
	if err != nil {
		return err
	}
	type pending struct {
		name    string
		plugin  metainject.Injectable
		req     *metainject.Request
		entries []*metainject.Entry
	}
	var order []*pending
	byStep := make(map[string]*pending)
	for _, o := range overrides {
		p, ok := byStep[o.Step]
		if !ok {
			n, found := g.Step(o.Step)
			if !found {
				return &graph.WiringError{Step: o.Step, Reason: "cannot apply setting: step not found"}
			}
			p = &pending{name: o.Step, plugin: n.Plugin, req: metainject.NewRequest(n.Plugin)}
			byStep[o.Step] = p
			order = append(order, p)
		}
		if o.Null {
			p.req.SetNull(o.Key)
		} else {
			p.req.Set(o.Key, o.Value)
		}
	}

	var errs []error
	for _, p := range order {
		entries, err := p.req.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("step %q: %w", p.name, err))
			continue
		}
		p.entries = entries
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, p := range order {
		if err := p.plugin.ApplyInjection(p.entries); err != nil {
			errs = append(errs, fmt.Errorf("step %q: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}
