// Package filter implements the "filter" step. Rows for which the boolean
// CONDITION holds are forwarded; all others are counted as rejected.
//
// Conditions are expr-lang expressions over the input field names, e.g.
//
//	age >= 18 && state == "Florida"
package filter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/dummy"
)

const TypeID = "filter"

type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Forwards rows matching a condition", func() catalog.Plugin { return New() })
}

// Config is the configuration of a filter step.
type Config struct {
	Condition string
	// FailOnError makes an evaluation error fatal instead of rejecting the row.
	FailOnError bool
}

func (c *Config) clone() *Config { n := *c; return &n }

func (c *Config) validate() error {
	if c.Condition == "" {
		return nil
	}
	if _, err := expr.Compile(c.Condition); err != nil {
		return fmt.Errorf("invalid condition: %w", err)
	}
	return nil
}

func bind(c *Config) *metainject.Table {
	return &metainject.Table{Attributes: []metainject.Attribute{
		metainject.StringAttr("CONDITION", "Boolean expression over the input fields", &c.Condition),
		metainject.BoolAttr("FAIL_ON_ERROR", "Fail the step when the condition cannot be evaluated", &c.FailOnError),
	}}
}

// Step evaluates the condition for each row.
type Step struct {
	dummy.Step
	cfg *Config

	program *vm.Program
	names   []string
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Transform = (*Step)(nil)
)

func New() *Step { return &Step{cfg: &Config{}} }

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

// Init type-checks the condition against the input layout.
func (s *Step) Init(_ context.Context, rc *step.RunContext) error {
	if s.cfg.Condition == "" {
		return errors.New("no condition specified")
	}
	in := rc.InputMeta()
	s.names = in.Names()
	env := make(map[string]any, in.Size())
	for _, v := range in.Values() {
		env[v.Name] = zeroValue(v.Type)
	}
	program, err := expr.Compile(s.cfg.Condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return fmt.Errorf("compile condition: %w", err)
	}
	s.program = program
	return nil
}

func (s *Step) ProcessRow(ctx context.Context, rc *step.RunContext, r row.Row) error {
	env := make(map[string]any, len(s.names))
	for i, name := range s.names {
		if i < len(r) {
			env[name] = exprValue(r[i])
		}
	}
	out, err := expr.Run(s.program, env)
	if err != nil {
		if s.cfg.FailOnError {
			return fmt.Errorf("evaluate condition: %w", err)
		}
		rc.Reject(ctx, r, err)
		return nil
	}
	if match, _ := out.(bool); !match {
		rc.Reject(ctx, r, nil)
		return nil
	}
	return rc.Emit(ctx, r)
}

func zeroValue(t row.Type) any {
	switch t {
	case row.Integer:
		return int64(0)
	case row.Number, row.BigNumber:
		return float64(0)
	case row.Boolean:
		return false
	case row.Binary:
		return []byte(nil)
	case row.Date, row.Timestamp:
		return time.Time{}
	default:
		return ""
	}
}

func exprValue(v any) any {
	if f, ok := v.(*big.Float); ok {
		x, _ := f.Float64()
		return x
	}
	return v
}
