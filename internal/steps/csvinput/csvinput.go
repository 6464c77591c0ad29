// Package csvinput implements the "csv_input" step: it reads a delimited text
// file and writes one row per record using the configured field definitions.
package csvinput

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
	"github.com/vk/streamgridgo/internal/step"
	"github.com/vk/streamgridgo/internal/steps/fieldspec"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// TypeID is the catalog identifier of the step.
const TypeID = "csv_input"

// Module registers the step type.
type Module struct{}

func (Module) Register(c *catalog.Catalog) {
	c.Register(TypeID, "Reads rows from a delimited text file", func() catalog.Plugin { return New() })
}

// Step reads a CSV file.
type Step struct {
	cfg *Config

	file   *os.File
	layout *row.Meta
}

var (
	_ catalog.Plugin = (*Step)(nil)
	_ step.Source    = (*Step)(nil)
)

// New creates a step with the default configuration.
func New() *Step {
	return &Step{cfg: DefaultConfig()}
}

// Config returns the current configuration. It must not be modified.
func (s *Step) Config() *Config { return s.cfg }

func (s *Step) InjectionShape() []*metainject.Entry {
	return bind(DefaultConfig()).Shape()
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

// Fields returns the configured field layout, plus the row number field when set.
func (s *Step) Fields([]*row.Meta) (*row.Meta, error) {
	m := fieldspec.Meta(s.cfg.Fields)
	if s.cfg.RowNumberField != "" {
		m.Add(row.NewValueMeta(s.cfg.RowNumberField, row.Integer))
	}
	return m, nil
}

func (s *Step) Init(ctx context.Context, rc *step.RunContext) error {
	if s.cfg.Filename == "" {
		return errors.New("no file name specified")
	}
	if len(s.cfg.Fields) == 0 {
		return errors.New("no fields defined")
	}
	f, err := os.Open(s.cfg.Filename)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	s.file = f
	s.layout = fieldspec.Meta(s.cfg.Fields)
	ctxlog.FromContext(ctx).Debug("Opened input file.", "file", s.cfg.Filename, "encoding", s.cfg.Encoding)
	return nil
}

func (s *Step) Generate(ctx context.Context, rc *step.RunContext) error {
	r, err := s.newReader()
	if err != nil {
		return err
	}
	out := rc.OutputMeta()
	if out == nil {
		if out, err = s.Fields(nil); err != nil {
			return err
		}
	}
	counters := rc.Counters()

	var rowNr int64
	header := s.cfg.HeaderPresent
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		counters.AddInput(1)
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rc.Reject(ctx, nil, err)
				continue
			}
			return fmt.Errorf("failed to read %s: %w", s.cfg.Filename, err)
		}
		if header {
			header = false
			continue
		}

		rowNr++
		values, err := s.convert(record)
		if err != nil {
			rc.Reject(ctx, nil, err)
			continue
		}
		if s.cfg.RowNumberField != "" {
			values = append(values, rowNr)
		}
		if out.Size() != len(values) {
			return fmt.Errorf("row layout has %d fields, record produced %d", out.Size(), len(values))
		}
		if err := rc.Emit(ctx, values); err != nil {
			return err
		}
	}
}

func (s *Step) Dispose(ctx context.Context) {
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to close input file.", "file", s.cfg.Filename, "error", err)
	}
	s.file = nil
}

func (s *Step) newReader() (*csv.Reader, error) {
	var src io.Reader = s.file
	if s.cfg.Encoding != "" {
		enc, err := htmlindex.Get(s.cfg.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", s.cfg.Encoding, err)
		}
		src = transform.NewReader(src, enc.NewDecoder())
	}
	size := s.cfg.BufferSize
	if size < 16 {
		size = 4096
	}
	r := csv.NewReader(bufio.NewReaderSize(src, size))
	r.Comma = []rune(s.cfg.Delimiter)[0]
	r.FieldsPerRecord = -1
	r.LazyQuotes = s.cfg.Enclosure == ""
	r.ReuseRecord = true
	return r, nil
}

// convert parses the record's columns into the configured field types.
// Missing trailing columns become nulls; extra columns are ignored.
func (s *Step) convert(record []string) (row.Row, error) {
	values := make(row.Row, len(s.cfg.Fields), len(s.cfg.Fields)+1)
	for i, vm := range s.layout.Values() {
		if i >= len(record) {
			break
		}
		v, err := vm.ConvertFromString(record[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
