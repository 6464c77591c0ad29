// Package envvars implements the "env_vars" step, which writes a single row
// holding the values of environment variables.
package envvars

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/fieldspec"
)

const TypeID = "env_vars"

type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Reads environment variables into a row", func() catalog.Plugin { return New() })
}

// Config lists the output fields and the variable each one is read from.
type Config struct {
	Fields []fieldspec.Field
	// Variables holds the variable name of each field. An empty name reads
	// the variable named like the field.
	Variables []string
}

func (c *Config) clone() *Config {
	return &Config{
		Fields:    append([]fieldspec.Field(nil), c.Fields...),
		Variables: append([]string(nil), c.Variables...),
	}
}

func bind(c *Config) *metainject.Table {
	fields := fieldspec.Group(&c.Fields)
	resize := fields.Resize
	fields.Resize = func(n int) {
		resize(n)
		c.Variables = make([]string, n)
	}
	fields.Attributes = append(fields.Attributes, metainject.RecordAttribute{
		Key: "FIELD_VARIABLE", Type: row.String, Description: "Environment variable name",
		Set: func(i int, v any) error { c.Variables[i] = metainject.AsString(v); return nil },
		Get: func(i int) (string, bool) { return c.Variables[i], c.Variables[i] != "" },
	})
	return &metainject.Table{Groups: []metainject.Group{fields}}
}

// Step reads the configured variables.
type Step struct {
	cfg    *Config
	lookup func(string) (string, bool)
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Source    = (*Step)(nil)
)

func New() *Step {
	return &Step{cfg: &Config{}, lookup: os.LookupEnv}
}

// Config returns the current configuration. It must not be modified.
func (s *Step) Config() *Config { return s.cfg }

func (s *Step) InjectionShape() []*metainject.Entry { return bind(&Config{}).Shape() }

func (s *Step) ApplyInjection(entries []*metainject.Entry) error {
	next, err := metainject.Inject(s.cfg, (*Config).clone, bind, nil, entries)
	if err != nil {
		return err
	}
	s.cfg = next
	return nil
}

func (s *Step) ExtractInjection() []*metainject.Entry { return bind(s.cfg).Extract() }

func (s *Step) Fields([]*row.Meta) (*row.Meta, error) {
	return fieldspec.Meta(s.cfg.Fields), nil
}

// Generate writes one row. An unset variable yields a null value.
func (s *Step) Generate(ctx context.Context, rc *step.RunContext) error {
	r := make(row.Row, len(s.cfg.Fields))
	for i, f := range s.cfg.Fields {
		name := f.Name
		if i < len(s.cfg.Variables) && s.cfg.Variables[i] != "" {
			name = s.cfg.Variables[i]
		}
		text, ok := s.lookup(name)
		if !ok {
			continue
		}
		v, err := f.ValueMeta().ConvertFromString(text)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		r[i] = v
	}
	rc.Counters().AddInput(1)
	return rc.Emit(ctx, r)
}
