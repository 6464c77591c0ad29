package row

import (
	"fmt"
	"strings"
)

// Type is the semantic type tag of a field or of an injected value.
type Type int

const (
	// None marks an unknown or unset type.
	None Type = iota
	Number
	String
	Date
	Boolean
	Integer
	BigNumber
	Binary
	Timestamp
)

var typeDescs = map[Type]string{
	None:      "None",
	Number:    "Number",
	String:    "String",
	Date:      "Date",
	Boolean:   "Boolean",
	Integer:   "Integer",
	BigNumber: "BigNumber",
	Binary:    "Binary",
	Timestamp: "Timestamp",
}

// String returns the canonical type description, e.g. "Integer".
func (t Type) String() string {
	if d, ok := typeDescs[t]; ok {
		return d
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNumeric reports whether values of this type are numbers.
func (t Type) IsNumeric() bool {
	return t == Number || t == Integer || t == BigNumber
}

// ParseType resolves a type description case-insensitively. The empty string
// resolves to None.
func ParseType(desc string) (Type, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return None, nil
	}
	for t, d := range typeDescs {
		if strings.EqualFold(d, desc) {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown value type %q", desc)
}

// TrimType is the whitespace trimming policy applied when parsing text.
type TrimType int

const (
	TrimNone TrimType = iota
	TrimLeft
	TrimRight
	TrimBoth
)

var trimCodes = []string{"none", "left", "right", "both"}

// Code returns the persisted trim code ("none", "left", "right", "both").
func (t TrimType) Code() string {
	if t < 0 || int(t) >= len(trimCodes) {
		return trimCodes[0]
	}
	return trimCodes[t]
}

func (t TrimType) String() string { return t.Code() }

// ParseTrimType resolves a trim code or description case-insensitively. The
// empty string resolves to TrimNone.
func ParseTrimType(code string) (TrimType, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return TrimNone, nil
	}
	for i, c := range trimCodes {
		if strings.EqualFold(c, code) {
			return TrimType(i), nil
		}
	}
	return TrimNone, fmt.Errorf("unknown trim type %q", code)
}

// Apply trims s according to the policy.
func (t TrimType) Apply(s string) string {
	switch t {
	case TrimLeft:
		return strings.TrimLeft(s, " \t")
	case TrimRight:
		return strings.TrimRight(s, " \t")
	case TrimBoth:
		return strings.Trim(s, " \t")
	default:
		return s
	}
}
