// Package rowgenerator implements the "row_generator" step, which writes a
// fixed number of identical rows built from constant field values.
package rowgenerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/fieldspec"
)

// TypeID is the catalog identifier of the step.
const TypeID = "row_generator"

// Module registers the step type.
type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Generates a number of constant rows", func() catalog.Plugin { return New() })
}

// Config is the configuration of a row generator.
type Config struct {
	Limit  int
	Fields []fieldspec.Field
	// Values holds the constant text of each field, parsed with its definition.
	Values []string
}

func (c *Config) clone() *Config {
	n := *c
	n.Fields = append([]fieldspec.Field(nil), c.Fields...)
	n.Values = append([]string(nil), c.Values...)
	return &n
}

func (c *Config) validate() error {
	if c.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func bind(c *Config) *metainject.Table {
	fields := fieldspec.Group(&c.Fields)
	resize := fields.Resize
	fields.Resize = func(n int) {
		resize(n)
		c.Values = make([]string, n)
	}
	fields.Attributes = append(fields.Attributes, metainject.RecordAttribute{
		Key: "FIELD_VALUE", Type: row.String, Description: "Field value",
		Set: func(i int, v any) error { c.Values[i] = metainject.AsString(v); return nil },
		Get: func(i int) (string, bool) { return c.Values[i], c.Values[i] != "" },
	})
	return &metainject.Table{
		Attributes: []metainject.Attribute{
			metainject.IntAttr("LIMIT", "The number of rows to generate", &c.Limit),
		},
		Groups: []metainject.Group{fields},
	}
}

// Step generates rows.
type Step struct {
	cfg      *Config
	template row.Row
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Source    = (*Step)(nil)
)

// New creates a generator producing ten empty rows.
func New() *Step {
	return &Step{cfg: &Config{Limit: 10}}
}

// Config returns the current configuration. It must not be modified.
func (s *Step) Config() *Config { return s.cfg }

func (s *Step) InjectionShape() []*metainject.Entry {
	return bind(&Config{}).Shape()
}

func (s *Step) ApplyInjection(entries []*metainject.Entry) error {
	next, err := metainject.Inject(s.cfg, (*Config).clone, bind, (*Config).validate, entries)
	if err != nil {
		return err
	}
	s.cfg = next
	return nil
}

func (s *Step) ExtractInjection() []*metainject.Entry {
	return bind(s.cfg).Extract()
}

func (s *Step) Fields([]*row.Meta) (*row.Meta, error) {
	return fieldspec.Meta(s.cfg.Fields), nil
}

func (s *Step) Init(context.Context, *step.RunContext) error {
	s.template = make(row.Row, len(s.cfg.Fields))
	for i, f := range s.cfg.Fields {
		var text string
		if i < len(s.cfg.Values) {
			text = s.cfg.Values[i]
		}
		v, err := f.ValueMeta().ConvertFromString(text)
		if err != nil {
			return fmt.Errorf("constant value of field %q: %w", f.Name, err)
		}
		s.template[i] = v
	}
	return nil
}

func (s *Step) Generate(ctx context.Context, rc *step.RunContext) error {
	for i := 0; i < s.cfg.Limit; i++ {
		if err := rc.Emit(ctx, s.template.Clone()); err != nil {
			return err
		}
	}
	return nil
}
