package csvinput

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/steps/fieldspec"
	"golang.org/x/text/encoding/htmlindex"
)

// Config is the configuration of a CSV file input step.
type Config struct {
	Filename       string
	Delimiter      string
	Enclosure      string
	HeaderPresent  bool
	Encoding       string
	RowNumberField string
	BufferSize     int
	Fields         []fieldspec.Field
}

// DefaultConfig returns the configuration of a new step.
func DefaultConfig() *Config {
	return &Config{
		Delimiter:     ";",
		Enclosure:     `"`,
		HeaderPresent: true,
		BufferSize:    50000,
	}
}

func (c *Config) clone() *Config {
	n := *c
	n.Fields = append([]fieldspec.Field(nil), c.Fields...)
	return &n
}

func (c *Config) validate() error {
	var errs []error
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter))
	}
	if c.Enclosure != "" && c.Enclosure != `"` {
		errs = append(errs, fmt.Errorf("unsupported enclosure %q", c.Enclosure))
	}
	if c.Encoding != "" {
		if _, err := htmlindex.Get(c.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("encoding %q: %w", c.Encoding, err))
		}
	}
	if c.BufferSize < 0 {
		errs = append(errs, errors.New("buffer size must not be negative"))
	}
	return errors.Join(errs...)
}

func bind(c *Config) *metainject.Table {
	return &metainject.Table{
		Attributes: []metainject.Attribute{
			metainject.StringAttr("FILENAME", "The file to read", &c.Filename),
			metainject.StringAttr("DELIMITER", "The field delimiter", &c.Delimiter),
			metainject.StringAttr("ENCLOSURE", "The field enclosure", &c.Enclosure),
			metainject.BoolAttr("HEADER_PRESENT", "Is there a header row?", &c.HeaderPresent),
			metainject.StringAttr("ENCODING", "The file encoding", &c.Encoding),
			metainject.StringAttr("ROW_NUMBER_FIELD", "The row number field name", &c.RowNumberField),
			metainject.IntAttr("BUFFER_SIZE", "The read buffer size", &c.BufferSize),
		},
		Groups: []metainject.Group{fieldspec.Group(&c.Fields)},
	}
}
