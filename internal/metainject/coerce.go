package metainject

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/streamgridgo/internal/row"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// timeLayouts are tried in order when coercing text to a Date or Timestamp.
var timeLayouts = []string{
	row.GoLayout(row.DefaultTimestampMask),
	row.GoLayout(row.DefaultDateMask),
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts the canonical text of a leaf into the native value of the
// destination type: string, int64, float64, *big.Float, bool, time.Time or
// []byte. A null leaf coerces to nil.
func Coerce(e *Entry, dest row.Type) (any, error) {
	text, ok := e.Value()
	if !ok {
		return nil, nil
	}
	from := e.Type
	if from == row.None {
		from = row.String
	}
	mismatch := func(err error) error {
		return &TypeMismatchError{Key: e.Key, From: from, To: dest, Text: text, Err: err}
	}

	src, err := ctyValue(from, text)
	if err != nil {
		return nil, mismatch(err)
	}

	switch dest {
	case row.String:
		return text, nil
	case row.Binary:
		return []byte(text), nil
	case row.Date, row.Timestamp:
		if from != row.String && from != row.Date && from != row.Timestamp {
			return nil, mismatch(nil)
		}
		t, err := parseTime(text)
		if err != nil {
			return nil, mismatch(err)
		}
		return t, nil
	case row.None:
		return nil, mismatch(fmt.Errorf("destination has no value type"))
	}

	if from == row.Date || from == row.Timestamp || from == row.Binary {
		return nil, mismatch(nil)
	}
	if dest == row.Boolean && from == row.String {
		// Flat-file spellings (Y/N, yes/no) are wider than cty's own.
		b, err := row.ParseBool(text)
		if err != nil {
			return nil, mismatch(err)
		}
		src = cty.BoolVal(b)
	}

	// Convert passes equal types through and fails on impossible pairs.
	val, err := convert.Convert(src, ctyType(dest))
	if err != nil {
		return nil, mismatch(err)
	}

	switch dest {
	case row.Integer:
		var n int64
		if err := gocty.FromCtyValue(val, &n); err != nil {
			return nil, mismatch(err)
		}
		return n, nil
	case row.Number:
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return nil, mismatch(err)
		}
		return f, nil
	case row.BigNumber:
		return val.AsBigFloat(), nil
	case row.Boolean:
		return val.True(), nil
	}
	return nil, mismatch(fmt.Errorf("unsupported destination type"))
}

func ctyType(t row.Type) cty.Type {
	switch {
	case t.IsNumeric():
		return cty.Number
	case t == row.Boolean:
		return cty.Bool
	default:
		return cty.String
	}
}

func ctyValue(t row.Type, text string) (cty.Value, error) {
	switch {
	case t.IsNumeric():
		return cty.ParseNumberVal(strings.TrimSpace(text))
	case t == row.Boolean:
		b, err := row.ParseBool(text)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	default:
		if t == row.String {
			return cty.StringVal(strings.TrimSpace(text)), nil
		}
		return cty.StringVal(text), nil
	}
}

func parseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}
