// SPDX-License-Identifier: MPL-2.0

package document

import (
	"fmt"
	"strings"
)

const (
	// StringParam accepts string arguments.
	StringParam ParamType = iota + 1
	// NumberParam accepts numeric arguments.
	NumberParam
	// BooleanParam accepts boolean arguments.
	BooleanParam
	// EnumParam accepts one of a fixed set of string literals.
	EnumParam
)

type (
	// ParamType is the declared type of a template parameter.
	ParamType uint8

	// ParamDefinition declares one template parameter of a document that
	// exists to be inherited or imported parametrically.
	ParamDefinition struct {
		Name string
		Type ParamType

		// EnumOptions are the literal options for an EnumParam; empty for
		// every other type.
		EnumOptions []string

		// Optional marks a parameter that may stay unbound without a
		// default. Binding a document that omits a required parameter with
		// no default is a resolution error.
		Optional bool

		// Default fills the binding when the call site supplies no argument.
		Default *Value
	}

	// ParamArgument supplies a value for a declared parameter at an
	// @inherit or @use call site.
	ParamArgument struct {
		Name  string
		Value Value
	}
)

// String renders the param type the way the language spells it.
func (t ParamType) String() string {
	switch t {
	case StringParam:
		return "string"
	case NumberParam:
		return "number"
	case BooleanParam:
		return "boolean"
	case EnumParam:
		return "enum"
	default:
		return fmt.Sprintf("ParamType(%d)", uint8(t))
	}
}

// Accepts reports whether the given value satisfies the declared type. Text
// values satisfy string parameters; everything else matches by kind, and
// enums additionally require the string to be one of the declared options.
func (d *ParamDefinition) Accepts(v Value) bool {
	switch d.Type {
	case StringParam:
		return v.Kind == StringValue || v.Kind == TextValue
	case NumberParam:
		return v.Kind == NumberValue
	case BooleanParam:
		return v.Kind == BoolValue
	case EnumParam:
		if v.Kind != StringValue && v.Kind != TextValue {
			return false
		}
		for _, opt := range d.EnumOptions {
			if v.Str == opt {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// TypeLabel renders the full declared type for diagnostics, including enum
// options: `enum(dev, prod)`.
func (d *ParamDefinition) TypeLabel() string {
	if d.Type == EnumParam {
		return "enum(" + strings.Join(d.EnumOptions, ", ") + ")"
	}
	return d.Type.String()
}
