// Package writetolog implements the "write_to_log" step, which logs the rows
// passing through it and forwards them unchanged.
package writetolog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/dummy"
)

const TypeID = "write_to_log"

type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Writes rows to the log", func() catalog.Plugin { return New() })
}

// Config is the configuration of a write-to-log step.
type Config struct {
	Level   string
	Message string
	// LimitRows caps the number of logged rows; 0 logs every row.
	LimitRows int
}

func (c *Config) clone() *Config { n := *c; return &n }

func (c *Config) validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	if c.LimitRows < 0 {
		return errors.New("row limit must not be negative")
	}
	return nil
}

func bind(c *Config) *metainject.Table {
	return &metainject.Table{Attributes: []metainject.Attribute{
		metainject.StringAttr("LOG_LEVEL", "debug, info, warn or error", &c.Level),
		metainject.StringAttr("LOG_MESSAGE", "Message logged with every row", &c.Message),
		metainject.IntAttr("LIMIT_ROWS", "Maximum number of rows to log, 0 for all", &c.LimitRows),
	}}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}

// Step logs each row as one structured line with a field per column.
type Step struct {
	dummy.Step
	cfg *Config

	level  slog.Level
	logged int
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Transform = (*Step)(nil)
)

func New() *Step { return &Step{cfg: &Config{Level: "info", Message: "Row"}} }

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

func (s *Step) Init(context.Context, *step.RunContext) error {
	level, err := parseLevel(s.cfg.Level)
	if err != nil {
		return err
	}
	s.level = level
	s.logged = 0
	return nil
}

func (s *Step) ProcessRow(ctx context.Context, rc *step.RunContext, r row.Row) error {
	if s.cfg.LimitRows == 0 || s.logged < s.cfg.LimitRows {
		s.logged++
		logger := ctxlog.FromContext(ctx)
		if logger.Enabled(ctx, s.level) {
			logger.LogAttrs(ctx, s.level, s.cfg.Message, rowAttrs(rc.InputMeta(), r)...)
		}
	}
	return rc.Emit(ctx, r)
}

func rowAttrs(m *row.Meta, r row.Row) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(r))
	for i, v := range r {
		name := fmt.Sprintf("field%d", i)
		if m != nil && i < m.Size() {
			name = m.ValueMeta(i).Name
		}
		attrs = append(attrs, slog.Any(name, v))
	}
	return attrs
}
