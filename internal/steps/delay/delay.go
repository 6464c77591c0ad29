// Package delay implements the "delay" step, which forwards each row after
// waiting a fixed time.
package delay

import (
	"context"
	"errors"
	"time"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/dummy"
)

const TypeID = "delay"

type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Delays every row by a fixed time", func() catalog.Plugin { return New() })
}

// Config is the configuration of a delay step.
type Config struct {
	DelayMS int
}

func (c *Config) clone() *Config { n := *c; return &n }

func (c *Config) validate() error {
	if c.DelayMS < 0 {
		return errors.New("delay must not be negative")
	}
	return nil
}

func bind(c *Config) *metainject.Table {
	return &metainject.Table{Attributes: []metainject.Attribute{
		metainject.IntAttr("DELAY_MS", "Delay per row in milliseconds", &c.DelayMS),
	}}
}

// Step sleeps before forwarding each row. The wait is interrupted when the
// run is cancelled.
type Step struct {
	dummy.Step
	cfg *Config
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Transform = (*Step)(nil)
)

func New() *Step { return &Step{cfg: &Config{DelayMS: 1000}} }

func (s *Step) Config() *Config { return s.cfg }

func (s *Step) InjectionShape() []*metainject.Entry { return bind(&Config{}).Shape() }

func (s *Step) ApplyInjection(entries []*metainject.Entry) error {
	next, err := metainject.Inject(s.cfg, (*Config).clone, bind, (*Config).validate, entries)
	if err != nil {
		return err
	}
	s.cfg = next
	return nil
}

func (s *Step) ExtractInjection() []*metainject.Entry { return bind(s.cfg).Extract() }

func (s *Step) ProcessRow(ctx context.Context, rc *step.RunContext, r row.Row) error {
	if s.cfg.DelayMS > 0 {
		timer := time.NewTimer(time.Duration(s.cfg.DelayMS) * time.Millisecond)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return rc.Emit(ctx, r)
}
