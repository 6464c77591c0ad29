package metainject

import (
	"errors"
	"strconv"

	"github.com/vk/streamgridgo/internal/row"
)

// Attribute binds a top-level leaf key to one configuration field.
type Attribute struct {
	Key         string
	Type        row.Type
	Description string
	// Set receives the coerced native value, or nil to reset the field.
	Set func(v any) error
	// Get returns the field's canonical text, false when unset.
	Get func() (string, bool)
}

// RecordAttribute binds a leaf key inside a group record to a field of the
// i-th element of a configuration list.
type RecordAttribute struct {
	Key         string
	Type        row.Type
	Description string
	Set         func(i int, v any) error
	Get         func(i int) (string, bool)
}

// Group binds a repeating group to a configuration list. Records are entries
// keyed RecordKey under the group entry.
type Group struct {
	Key         string
	RecordKey   string
	Description string
	Attributes  []RecordAttribute
	// Resize replaces the list with n default-valued elements.
	Resize func(n int)
	// Count returns the current list length.
	Count func() int
}

// Table maps injection keys onto a configuration value. A step builds one per
// configuration instance; the declared shape does not depend on the values.
type Table struct {
	Attributes []Attribute
	Groups     []Group
}

// Shape returns the entry templates declared by the table. Each group holds a
// single record template.
func (t *Table) Shape() []*Entry {
	var out []*Entry
	for _, a := range t.Attributes {
		out = append(out, NewEntry(a.Key, a.Type, a.Description))
	}
	for _, g := range t.Groups {
		group := NewEntry(g.Key, row.None, g.Description)
		record := group.AddChild(NewEntry(g.RecordKey, row.None, g.Description))
		for _, a := range g.Attributes {
			record.AddChild(NewEntry(a.Key, a.Type, a.Description))
		}
		out = append(out, group)
	}
	return out
}

type pendingSet struct {
	attr  *Attribute
	value any
}

type pendingRecordSet struct {
	attr  *RecordAttribute
	index int
	value any
}

type pendingGroup struct {
	group *Group
	count int
	sets  []pendingRecordSet
}

// Apply injects entries into the bound configuration. Every entry is resolved
// and coerced first; setters run only when the whole tree is valid. Keys not
// present in entries keep their values. A key may appear at most once among
// siblings.
func (t *Table) Apply(entries []*Entry) error {
	var (
		errs   []error
		sets   []pendingSet
		groups []pendingGroup
		seen   = map[string]bool{}
	)
	for _, e := range entries {
		if seen[e.Key] {
			errs = append(errs, &InjectionError{Key: e.Key, Reason: "duplicate key"})
			continue
		}
		seen[e.Key] = true
		if attr := t.attribute(e.Key); attr != nil {
			if e.IsGroup() {
				errs = append(errs, &InjectionError{Key: e.Key, Reason: "expected a value, got a group"})
				continue
			}
			v, err := Coerce(e, attr.Type)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			sets = append(sets, pendingSet{attr: attr, value: v})
			continue
		}
		if group := t.group(e.Key); group != nil {
			pg, err := resolveGroup(group, e)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			groups = append(groups, pg)
			continue
		}
		errs = append(errs, &UnknownKeyError{Key: e.Key})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, s := range sets {
		if err := s.attr.Set(s.value); err != nil {
			return &InjectionError{Key: s.attr.Key, Err: err}
		}
	}
	for _, pg := range groups {
		pg.group.Resize(pg.count)
		for _, s := range pg.sets {
			if err := s.attr.Set(s.index, s.value); err != nil {
				return &InjectionError{Key: pg.group.Key + "[" + strconv.Itoa(s.index) + "]." + s.attr.Key, Err: err}
			}
		}
	}
	return nil
}

func resolveGroup(g *Group, e *Entry) (pendingGroup, error) {
	pg := pendingGroup{group: g}
	if _, ok := e.Value(); ok || e.Type != row.None {
		return pg, &InjectionError{Key: e.Key, Reason: "expected a group, got a value"}
	}
	var errs []error
	for i, rec := range e.Children {
		if rec.Key != g.RecordKey {
			errs = append(errs, &UnknownKeyError{Key: rec.Key, Group: g.Key})
			continue
		}
		if _, ok := rec.Value(); ok {
			errs = append(errs, &InjectionError{Key: rec.Key, Reason: "record entries cannot carry a value"})
			continue
		}
		seen := map[string]bool{}
		for _, leaf := range rec.Children {
			if seen[leaf.Key] {
				errs = append(errs, &InjectionError{Key: leaf.Key, Reason: "duplicate key"})
				continue
			}
			seen[leaf.Key] = true
			attr := g.attribute(leaf.Key)
			if attr == nil {
				errs = append(errs, &UnknownKeyError{Key: leaf.Key, Group: g.Key})
				continue
			}
			if len(leaf.Children) > 0 {
				errs = append(errs, &InjectionError{Key: leaf.Key, Reason: "a leaf cannot have children"})
				continue
			}
			v, err := Coerce(leaf, attr.Type)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			pg.sets = append(pg.sets, pendingRecordSet{attr: attr, index: i, value: v})
		}
	}
	pg.count = len(e.Children)
	return pg, errors.Join(errs...)
}

// Extract renders the bound configuration as an entry tree with the same
// shape Apply accepts.
func (t *Table) Extract() []*Entry {
	var out []*Entry
	for _, a := range t.Attributes {
		e := NewEntry(a.Key, a.Type, a.Description)
		if v, ok := a.Get(); ok {
			e.SetValue(v)
		}
		out = append(out, e)
	}
	for _, g := range t.Groups {
		group := NewEntry(g.Key, row.None, g.Description)
		group.Children = []*Entry{}
		for i := 0; i < g.Count(); i++ {
			record := group.AddChild(NewEntry(g.RecordKey, row.None, g.Description))
			for _, a := range g.Attributes {
				e := record.AddChild(NewEntry(a.Key, a.Type, a.Description))
				if v, ok := a.Get(i); ok {
					e.SetValue(v)
				}
			}
		}
		out = append(out, group)
	}
	return out
}

func (t *Table) attribute(key string) *Attribute {
	for i := range t.Attributes {
		if t.Attributes[i].Key == key {
			return &t.Attributes[i]
		}
	}
	return nil
}

func (t *Table) group(key string) *Group {
	for i := range t.Groups {
		if t.Groups[i].Key == key {
			return &t.Groups[i]
		}
	}
	return nil
}

func (g *Group) attribute(key string) *RecordAttribute {
	for i := range g.Attributes {
		if g.Attributes[i].Key == key {
			return &g.Attributes[i]
		}
	}
	return nil
}

// Injectable is implemented by steps whose configuration can be populated
// from an entry tree.
type Injectable interface {
	// InjectionShape declares the injectable keys. It is independent of the
	// current configuration.
	InjectionShape() []*Entry
	// ApplyInjection populates the configuration from entries, atomically.
	ApplyInjection(entries []*Entry) error
}

// Extractor is implemented by injectable steps that can render their current
// configuration back into entries.
type Extractor interface {
	ExtractInjection() []*Entry
}

// Inject applies entries to a copy of cfg through the table built by bind and
// validates the copy. The copy is returned only when everything succeeded, so
// callers can swap it in and keep cfg untouched on error.
func Inject[C any](cfg C, clone func(C) C, bind func(C) *Table, validate func(C) error, entries []*Entry) (C, error) {
	next := clone(cfg)
	if err := bind(next).Apply(entries); err != nil {
		return cfg, err
	}
	if validate != nil {
		if err := validate(next); err != nil {
			return cfg, &InjectionError{Reason: "invalid configuration", Err: err}
		}
	}
	return next, nil
}

// StringAttr binds a string field; null resets it to "".
func StringAttr(key, description string, p *string) Attribute {
	return Attribute{
		Key: key, Type: row.String, Description: description,
		Set: func(v any) error {
			*p = AsString(v)
			return nil
		},
		Get: func() (string, bool) { return *p, *p != "" },
	}
}

// IntAttr binds an int field; null resets it to 0.
func IntAttr(key, description string, p *int) Attribute {
	return Attribute{
		Key: key, Type: row.Integer, Description: description,
		Set: func(v any) error {
			*p = AsInt(v, 0)
			return nil
		},
		Get: func() (string, bool) { return strconv.Itoa(*p), true },
	}
}

// BoolAttr binds a bool field; null resets it to false.
func BoolAttr(key, description string, p *bool) Attribute {
	return Attribute{
		Key: key, Type: row.Boolean, Description: description,
		Set: func(v any) error {
			b, _ := v.(bool)
			*p = b
			return nil
		},
		Get: func() (string, bool) { return FormatBool(*p), true },
	}
}

// AsString returns a coerced string value, "" for null.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsInt returns a coerced int64 value as int, def for null.
func AsInt(v any, def int) int {
	if n, ok := v.(int64); ok {
		return int(n)
	}
	return def
}

// FormatBool renders a boolean the way flat-file configuration spells it.
func FormatBool(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// OptionalInt renders n, or reports unset when n is negative.
func OptionalInt(n int) (string, bool) {
	if n < 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}
