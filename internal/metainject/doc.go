// Package metainject populates a step's configuration at runtime from a
// uniform tree of typed key/value entries.
//
// A step declares the shape of its injectable configuration as a tree of
// Entry templates: leaves carry a value type, groups (type None) carry a
// single record template whose children are the record's leaves. A caller
// builds a concrete tree with a Request, cloning the record template once per
// record, and hands it to the step. The step maps keys to its fields through
// an explicit Table of setters and getters, so nothing here relies on
// reflection.
//
// Injection is all-or-nothing. A Table resolves and coerces every entry
// before the first setter runs, and steps apply the table to a copy of their
// configuration that replaces the live one only on success.
package metainject
