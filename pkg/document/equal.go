// SPDX-License-Identifier: MPL-2.0

package document

import (
	"sort"
	"strconv"
	"strings"
)

// CanonicalKey serializes the value into a stable textual form: map keys are
// sorted, arrays keep their order, and every case is tagged so values of
// different kinds never collide. Structural equality and array deduplication
// both compare canonical keys.
func (v Value) CanonicalKey() string {
	var sb strings.Builder
	v.writeCanonical(&sb)
	return sb.String()
}

// Equal reports deep structural equality between two values.
func (v Value) Equal(other Value) bool {
	return v.CanonicalKey() == other.CanonicalKey()
}

// Equal reports deep structural equality between two block contents.
func (c BlockContent) Equal(other BlockContent) bool {
	if c.Kind != other.Kind || c.Text != other.Text {
		return false
	}
	return c.AsValue().Equal(other.AsValue())
}

func (v Value) writeCanonical(sb *strings.Builder) {
	switch v.Kind {
	case NullValue:
		sb.WriteString("z")
	case StringValue:
		sb.WriteString("s")
		sb.WriteString(strconv.Quote(v.Str))
	case TextValue:
		sb.WriteString("t")
		sb.WriteString(strconv.Quote(v.Str))
	case NumberValue:
		sb.WriteString("n")
		sb.WriteString(strconv.FormatFloat(v.Num, 'g', -1, 64))
	case BoolValue:
		sb.WriteString("b")
		sb.WriteString(strconv.FormatBool(v.Bool))
	case TemplateValue:
		sb.WriteString("e")
		sb.WriteString(strconv.Quote(v.Str))
	case ArrayValue:
		sb.WriteString("a[")
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeCanonical(sb)
		}
		sb.WriteByte(']')
	case MapValue:
		keys := make([]string, 0, len(v.Props))
		for k := range v.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("m{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			prop := v.Props[k]
			prop.writeCanonical(sb)
		}
		sb.WriteByte('}')
	}
}

// AppendUnique appends each candidate whose canonical form is not already
// present, preserving order of first occurrence. It never mutates dst's
// backing array in a way visible to the caller: the result is a fresh slice.
func AppendUnique(dst []Value, candidates ...[]Value) []Value {
	seen := make(map[string]struct{}, len(dst))
	out := make([]Value, 0, len(dst))
	for _, group := range append([][]Value{dst}, candidates...) {
		for _, v := range group {
			key := v.CanonicalKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v.Clone())
		}
	}
	return out
}
