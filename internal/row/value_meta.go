package row

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ValueMeta describes one field of a row layout.
type ValueMeta struct {
	Name           string
	Type           Type
	ConversionMask string
	// Length and Precision are -1 when unset.
	Length         int
	Precision      int
	CurrencySymbol string
	DecimalSymbol  string
	GroupingSymbol string
	TrimType       TrimType
}

// NewValueMeta returns a field descriptor with unset length and precision.
func NewValueMeta(name string, t Type) *ValueMeta {
	return &ValueMeta{Name: name, Type: t, Length: -1, Precision: -1}
}

// Clone returns an independent copy of the descriptor.
func (v *ValueMeta) Clone() *ValueMeta {
	c := *v
	return &c
}

func (v *ValueMeta) String() string {
	return fmt.Sprintf("%s %s(%d, %d)", v.Name, v.Type, v.Length, v.Precision)
}

// ConvertFromString parses text into the native value for this field, after
// applying the trim policy. Empty text yields a nil (null) value.
func (v *ValueMeta) ConvertFromString(s string) (any, error) {
	s = v.TrimType.Apply(s)
	if s == "" {
		return nil, nil
	}
	switch v.Type {
	case String, None:
		return s, nil
	case Integer:
		n, err := strconv.ParseInt(v.normalizeNumber(s), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(v.normalizeNumber(s), 64)
			if ferr != nil || f != float64(int64(f)) {
				return nil, v.conversionError(s, err)
			}
			n = int64(f)
		}
		return n, nil
	case Number:
		f, err := strconv.ParseFloat(v.normalizeNumber(s), 64)
		if err != nil {
			return nil, v.conversionError(s, err)
		}
		return f, nil
	case BigNumber:
		f, ok := new(big.Float).SetString(v.normalizeNumber(s))
		if !ok {
			return nil, v.conversionError(s, fmt.Errorf("not a decimal number"))
		}
		return f, nil
	case Boolean:
		b, err := ParseBool(s)
		if err != nil {
			return nil, v.conversionError(s, err)
		}
		return b, nil
	case Date, Timestamp:
		t, err := time.ParseInLocation(GoLayout(v.dateMask()), s, time.UTC)
		if err != nil {
			return nil, v.conversionError(s, err)
		}
		return t, nil
	case Binary:
		return []byte(s), nil
	}
	return nil, fmt.Errorf("field %q: unsupported type %s", v.Name, v.Type)
}

// Format renders a native value as text using the field's mask and symbols.
func (v *ValueMeta) Format(val any) string {
	if val == nil {
		return ""
	}
	switch x := val.(type) {
	case string:
		return x
	case int64:
		return v.groupDigits(strconv.FormatInt(x, 10))
	case float64:
		prec := -1
		if v.Precision >= 0 {
			prec = v.Precision
		}
		s := strconv.FormatFloat(x, 'f', prec, 64)
		if v.DecimalSymbol != "" && v.DecimalSymbol != "." {
			s = strings.Replace(s, ".", v.DecimalSymbol, 1)
		}
		return s
	case *big.Float:
		return x.Text('f', -1)
	case bool:
		if x {
			return "Y"
		}
		return "N"
	case time.Time:
		return x.Format(GoLayout(v.dateMask()))
	case []byte:
		return string(x)
	}
	return fmt.Sprint(val)
}

func (v *ValueMeta) dateMask() string {
	if v.ConversionMask != "" {
		return v.ConversionMask
	}
	if v.Type == Timestamp {
		return DefaultTimestampMask
	}
	return DefaultDateMask
}

// normalizeNumber strips currency and grouping symbols and rewrites the
// decimal symbol to '.', so strconv can parse the result.
func (v *ValueMeta) normalizeNumber(s string) string {
	if v.CurrencySymbol != "" {
		s = strings.ReplaceAll(s, v.CurrencySymbol, "")
	}
	if v.GroupingSymbol != "" && v.GroupingSymbol != v.DecimalSymbol {
		s = strings.ReplaceAll(s, v.GroupingSymbol, "")
	}
	if v.DecimalSymbol != "" && v.DecimalSymbol != "." {
		s = strings.Replace(s, v.DecimalSymbol, ".", 1)
	}
	return strings.TrimSpace(s)
}

func (v *ValueMeta) groupDigits(s string) string {
	if v.GroupingSymbol == "" || v.ConversionMask == "" || !strings.Contains(v.ConversionMask, ",") {
		return s
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteString(v.GroupingSymbol)
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

func (v *ValueMeta) conversionError(s string, cause error) error {
	return &ConversionError{Field: v.Name, Type: v.Type, Text: s, Err: cause}
}

// ConversionError reports text that could not be parsed into a field's type.
type ConversionError struct {
	Field string
	Type  Type
	Text  string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("field %q: cannot convert %q to %s: %v", e.Field, e.Text, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ParseBool accepts the boolean spellings used in flat files and
// configuration: Y/N, yes/no, true/false and 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
