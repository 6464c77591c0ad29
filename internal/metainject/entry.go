package metainject

import (
	"fmt"
	"strings"

	"github.com/vk/streamgridgo/internal/row"
)

// Entry is one node of an injection tree. A leaf carries an optional text
// value of a declared type; a group has type row.None and ordered children.
type Entry struct {
	Key         string
	Type        row.Type
	Description string
	Children    []*Entry

	value *string
}

// NewEntry creates an entry without a value. Pass row.None to create a group.
func NewEntry(key string, t row.Type, description string) *Entry {
	return &Entry{Key: key, Type: t, Description: description}
}

// NewLeaf creates a leaf entry holding value.
func NewLeaf(key, value string, t row.Type, description string) *Entry {
	e := NewEntry(key, t, description)
	e.SetValue(value)
	return e
}

// SetValue stores the canonical text of the value.
func (e *Entry) SetValue(text string) {
	e.value = &text
}

// SetNull clears the value. A null leaf resets the target field to its default.
func (e *Entry) SetNull() {
	e.value = nil
}

// Value returns the text value and whether one is present.
func (e *Entry) Value() (string, bool) {
	if e.value == nil {
		return "", false
	}
	return *e.value, true
}

// IsGroup reports whether the entry is a group node.
func (e *Entry) IsGroup() bool {
	return e.Type == row.None || len(e.Children) > 0
}

// AddChild appends child and returns it.
func (e *Entry) AddChild(child *Entry) *Entry {
	e.Children = append(e.Children, child)
	return child
}

// SetChildren replaces the children.
func (e *Entry) SetChildren(children []*Entry) {
	e.Children = children
}

// Find returns the first child with the given key (case-sensitive), or nil.
func (e *Entry) Find(key string) *Entry {
	return FindEntry(e.Children, key)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := &Entry{Key: e.Key, Type: e.Type, Description: e.Description}
	if e.value != nil {
		v := *e.value
		c.value = &v
	}
	if e.Children != nil {
		c.Children = CloneEntries(e.Children)
	}
	return c
}

func (e *Entry) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Entry) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if e.IsGroup() {
		fmt.Fprintf(sb, "%s {\n", e.Key)
		for _, c := range e.Children {
			c.write(sb, depth+1)
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("}\n")
		return
	}
	if v, ok := e.Value(); ok {
		fmt.Fprintf(sb, "%s (%s) = %q\n", e.Key, e.Type, v)
	} else {
		fmt.Fprintf(sb, "%s (%s) = null\n", e.Key, e.Type)
	}
}

// FindEntry returns the first entry in entries with the given key, or nil.
func FindEntry(entries []*Entry, key string) *Entry {
	for _, e := range entries {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// CloneEntries deep-copies a list of entries.
func CloneEntries(entries []*Entry) []*Entry {
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
