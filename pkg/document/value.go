// SPDX-License-Identifier: MPL-2.0

package document

import (
	"fmt"
	"strconv"
)

const (
	// NullValue is the absence of a value (explicit null literal).
	NullValue ValueKind = iota
	// StringValue is a quoted or bare scalar string.
	StringValue
	// NumberValue is a numeric scalar.
	NumberValue
	// BoolValue is a boolean scalar.
	BoolValue
	// ArrayValue is an ordered list of values.
	ArrayValue
	// MapValue is a keyed collection of values.
	MapValue
	// TextValue is embedded free-form prose (triple-quoted docstring). It is
	// distinct from StringValue because text participates in the
	// concatenating merge strategies while strings are scalars that a merge
	// policy winner replaces outright.
	TextValue
	// TemplateValue is an unresolved template expression ({{name}} in value
	// position) standing in for a bound parameter before interpolation. It
	// carries the raw value when substituted, so a number parameter flows
	// into a structured property rather than into prose.
	TemplateValue
)

type (
	// ValueKind tags the active case of a Value.
	ValueKind uint8

	// Value is the recursive sum type for everything that can sit inside a
	// block: scalars, arrays, maps, embedded text, and unresolved template
	// expressions. The tag plus exhaustive switches replace class-hierarchy
	// polymorphism; every merge and interpolation routine handles every case.
	Value struct {
		Kind ValueKind

		// Str holds the payload for StringValue and TextValue, and the
		// parameter name for TemplateValue.
		Str string

		Num   float64
		Bool  bool
		Items []Value          // ArrayValue
		Props map[string]Value // MapValue
	}
)

// Null returns the null value.
func Null() Value { return Value{Kind: NullValue} }

// String returns a string scalar value.
func String(s string) Value { return Value{Kind: StringValue, Str: s} }

// Number returns a numeric scalar value.
func Number(n float64) Value { return Value{Kind: NumberValue, Num: n} }

// Bool returns a boolean scalar value.
func Bool(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// Array returns an array value over the given elements.
func Array(items ...Value) Value { return Value{Kind: ArrayValue, Items: items} }

// Map returns a map value over the given properties.
func Map(props map[string]Value) Value { return Value{Kind: MapValue, Props: props} }

// Text returns an embedded-text value.
func Text(s string) Value { return Value{Kind: TextValue, Str: s} }

// TemplateExpr returns an unresolved template expression naming a parameter.
func TemplateExpr(name string) Value { return Value{Kind: TemplateValue, Str: name} }

// IsZero reports whether v is the zero Value (a null).
func (v Value) IsZero() bool {
	return v.Kind == NullValue && v.Str == "" && v.Items == nil && v.Props == nil
}

// StringForm renders the value the way text interpolation embeds it into
// prose: strings and text verbatim, numbers without a trailing ".0" for
// integral values, booleans as "true"/"false", null as "".
func (v Value) StringForm() string {
	switch v.Kind {
	case StringValue, TextValue:
		return v.Str
	case NumberValue:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	case NullValue:
		return ""
	case TemplateValue:
		return "{{" + v.Str + "}}"
	default:
		return fmt.Sprintf("%v", v)
	}
}
