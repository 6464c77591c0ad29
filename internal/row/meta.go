package row

import (
	"fmt"
	"strings"
)

// Row is one ordered tuple of native values; nil elements are nulls.
type Row []any

// Clone returns a shallow copy of the row; values are immutable by convention.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Meta is an ordered row layout.
type Meta struct {
	values []*ValueMeta
}

// NewMeta builds a layout from the given descriptors, in order.
func NewMeta(values ...*ValueMeta) *Meta {
	m := &Meta{}
	for _, v := range values {
		m.Add(v)
	}
	return m
}

// Add appends a field descriptor.
func (m *Meta) Add(v *ValueMeta) {
	m.values = append(m.values, v)
}

// Size returns the number of fields.
func (m *Meta) Size() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// ValueMeta returns the descriptor at index i.
func (m *Meta) ValueMeta(i int) *ValueMeta {
	return m.values[i]
}

// Values returns the descriptors in layout order. The slice must not be modified.
func (m *Meta) Values() []*ValueMeta {
	if m == nil {
		return nil
	}
	return m.values
}

// Index returns the position of the named field, or -1.
func (m *Meta) Index(name string) int {
	if m == nil {
		return -1
	}
	for i, v := range m.values {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the field names in layout order.
func (m *Meta) Names() []string {
	names := make([]string, 0, m.Size())
	for _, v := range m.Values() {
		names = append(names, v.Name)
	}
	return names
}

// Clone deep-copies the layout.
func (m *Meta) Clone() *Meta {
	c := &Meta{}
	for _, v := range m.Values() {
		c.values = append(c.values, v.Clone())
	}
	return c
}

// Compatible returns an error describing the first difference in field names
// or types between two layouts. Steps reading from several inputs require
// compatible layouts on all of them.
func (m *Meta) Compatible(other *Meta) error {
	if m.Size() != other.Size() {
		return fmt.Errorf("layouts have %d and %d fields", m.Size(), other.Size())
	}
	for i, v := range m.Values() {
		o := other.ValueMeta(i)
		if v.Name != o.Name {
			return fmt.Errorf("field %d is named %q and %q", i, v.Name, o.Name)
		}
		if v.Type != o.Type {
			return fmt.Errorf("field %q has types %s and %s", v.Name, v.Type, o.Type)
		}
	}
	return nil
}

func (m *Meta) String() string {
	parts := make([]string, 0, m.Size())
	for _, v := range m.Values() {
		parts = append(parts, v.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
