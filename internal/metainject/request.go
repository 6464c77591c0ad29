package metainject

import (
	"errors"
	"sort"
)

// Record is one repeating-group record, keyed by leaf key. Absent keys are
// injected as nulls.
type Record map[string]string

type requestItem struct {
	key     string
	value   *string
	records []Record
	group   bool
}

// Request assembles an entry tree against a target's declared shape and
// applies it. It is the programmatic counterpart of building entries by hand.
type Request struct {
	target Injectable
	shape  []*Entry
	items  []requestItem
}

// NewRequest snapshots the shape declared by target.
func NewRequest(target Injectable) *Request {
	return &Request{target: target, shape: target.InjectionShape()}
}

// Set injects text into a top-level leaf.
func (r *Request) Set(key, text string) *Request {
	r.items = append(r.items, requestItem{key: key, value: &text})
	return r
}

// SetNull resets a top-level leaf to its default.
func (r *Request) SetNull(key string) *Request {
	r.items = append(r.items, requestItem{key: key})
	return r
}

// SetRecords replaces a repeating group with the given records. Calling it
// without records clears the group.
func (r *Request) SetRecords(groupKey string, records ...Record) *Request {
	r.items = append(r.items, requestItem{key: groupKey, records: records, group: true})
	return r
}

// Build resolves every key against the shape, clones the record template
// once per record and pre-coerces every leaf. All problems are reported
// together.
func (r *Request) Build() ([]*Entry, error) {
	var (
		out  []*Entry
		errs []error
		seen = map[string]bool{}
	)
	for _, it := range r.items {
		if seen[it.key] {
			errs = append(errs, &InjectionError{Key: it.key, Reason: "duplicate key"})
			continue
		}
		seen[it.key] = true
		tmpl := FindEntry(r.shape, it.key)
		if tmpl == nil {
			errs = append(errs, &UnknownKeyError{Key: it.key})
			continue
		}
		if it.group != tmpl.IsGroup() {
			reason := "expected a value, got records"
			if tmpl.IsGroup() {
				reason = "expected records, got a value"
			}
			errs = append(errs, &InjectionError{Key: it.key, Reason: reason})
			continue
		}
		if !it.group {
			e := NewEntry(tmpl.Key, tmpl.Type, tmpl.Description)
			if it.value != nil {
				e.SetValue(*it.value)
			}
			if _, err := Coerce(e, tmpl.Type); err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, e)
			continue
		}
		group, err := buildGroup(tmpl, it.records)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, group)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func buildGroup(tmpl *Entry, records []Record) (*Entry, error) {
	group := NewEntry(tmpl.Key, tmpl.Type, tmpl.Description)
	group.Children = []*Entry{}
	if len(tmpl.Children) == 0 {
		if len(records) == 0 {
			return group, nil
		}
		return nil, &InjectionError{Key: tmpl.Key, Reason: "group declares no record template"}
	}
	recordTmpl := tmpl.Children[0]
	var errs []error
	for _, rec := range records {
		entry := recordTmpl.Clone()
		for _, key := range sortedKeys(rec) {
			leaf := entry.Find(key)
			if leaf == nil {
				errs = append(errs, &UnknownKeyError{Key: key, Group: tmpl.Key})
				continue
			}
			leaf.SetValue(rec[key])
			if _, err := Coerce(leaf, leaf.Type); err != nil {
				errs = append(errs, err)
			}
		}
		group.AddChild(entry)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return group, nil
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply builds the tree and hands it to the target.
func (r *Request) Apply() error {
	entries, err := r.Build()
	if err != nil {
		return err
	}
	return r.target.ApplyInjection(entries)
}
