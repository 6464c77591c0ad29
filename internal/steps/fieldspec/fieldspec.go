// Package fieldspec holds the field definition list shared by steps that
// declare their own output layout, and its injection bindings.
package fieldspec

import (
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
)

// Field defines one output field of a step.
type Field struct {
	Name      string
	Type      row.Type
	Format    string
	Length    int
	Precision int
	Currency  string
	Decimal   string
	Group     string
	Trim      row.TrimType
}

// New returns a String field with unset length and precision.
func New(name string) Field {
	return Field{Name: name, Type: row.String, Length: -1, Precision: -1}
}

// ValueMeta converts the definition into a row field descriptor.
func (f Field) ValueMeta() *row.ValueMeta {
	v := row.NewValueMeta(f.Name, f.Type)
	v.ConversionMask = f.Format
	v.Length = f.Length
	v.Precision = f.Precision
	v.CurrencySymbol = f.Currency
	v.DecimalSymbol = f.Decimal
	v.GroupingSymbol = f.Group
	v.TrimType = f.Trim
	return v
}

// Meta builds the row layout for a list of definitions.
func Meta(fields []Field) *row.Meta {
	m := row.NewMeta()
	for _, f := range fields {
		m.Add(f.ValueMeta())
	}
	return m
}

// Group binds the FIELDS/FIELD repeating group to *fields.
func Group(fields *[]Field) metainject.Group {
	at := func(i int) *Field { return &(*fields)[i] }
	text := func(key, desc string, p func(f *Field) *string) metainject.RecordAttribute {
		return metainject.RecordAttribute{
			Key: key, Type: row.String, Description: desc,
			Set: func(i int, v any) error { *p(at(i)) = metainject.AsString(v); return nil },
			Get: func(i int) (string, bool) { s := *p(at(i)); return s, s != "" },
		}
	}
	number := func(key, desc string, p func(f *Field) *int) metainject.RecordAttribute {
		return metainject.RecordAttribute{
			Key: key, Type: row.Integer, Description: desc,
			Set: func(i int, v any) error { *p(at(i)) = metainject.AsInt(v, -1); return nil },
			Get: func(i int) (string, bool) { return metainject.OptionalInt(*p(at(i))) },
		}
	}
	return metainject.Group{
		Key:         "FIELDS",
		RecordKey:   "FIELD",
		Description: "The fields",
		Attributes: []metainject.RecordAttribute{
			text("FIELD_NAME", "Field name", func(f *Field) *string { return &f.Name }),
			{
				Key: "FIELD_TYPE", Type: row.String, Description: "Field type",
				Set: func(i int, v any) error {
					t, err := row.ParseType(metainject.AsString(v))
					if err != nil {
						return err
					}
					if t == row.None {
						t = row.String
					}
					at(i).Type = t
					return nil
				},
				Get: func(i int) (string, bool) { return at(i).Type.String(), true },
			},
			text("FIELD_FORMAT", "Field format", func(f *Field) *string { return &f.Format }),
			number("FIELD_LENGTH", "Field length", func(f *Field) *int { return &f.Length }),
			number("FIELD_PRECISION", "Field precision", func(f *Field) *int { return &f.Precision }),
			text("FIELD_CURRENCY", "Currency symbol", func(f *Field) *string { return &f.Currency }),
			text("FIELD_DECIMAL", "Decimal symbol", func(f *Field) *string { return &f.Decimal }),
			text("FIELD_GROUP", "Grouping symbol", func(f *Field) *string { return &f.Group }),
			{
				Key: "FIELD_TRIM_TYPE", Type: row.String, Description: "Trim type",
				Set: func(i int, v any) error {
					t, err := row.ParseTrimType(metainject.AsString(v))
					if err != nil {
						return err
					}
					at(i).Trim = t
					return nil
				},
				Get: func(i int) (string, bool) { return at(i).Trim.Code(), true },
			},
		},
		Resize: func(n int) {
			*fields = make([]Field, n)
			for i := range *fields {
				(*fields)[i] = New("")
			}
		},
		Count: func() int { return len(*fields) },
	}
}
