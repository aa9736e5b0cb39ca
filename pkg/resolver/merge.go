// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"strings"

	"promptscript-cli/pkg/document"
)

type (
	// mergePolicy fixes the conflict-resolution choices of one merge kind.
	// The shape rules (text joins text, arrays concatenate uniquely, objects
	// merge recursively, cross-shape combinations promote to mixed content)
	// are shared; the policy only decides who wins a scalar conflict and how
	// text is combined.
	mergePolicy struct {
		name string

		// rightWins selects the right operand on scalar and shape
		// conflicts. Inheritance and extension favor the newer, more
		// specific side; imports favor the imported fragment, which is
		// the left operand of the block merge.
		rightWins bool

		// dedupText suppresses the join when one side's text already
		// contains the other's. Only imports want this: the same
		// fragment prose reachable through two paths must not repeat.
		dedupText bool

		// accumulateText concatenates when two text values meet inside
		// an object, instead of letting the policy winner replace the
		// loser. Imports keep replacement semantics at nested depth.
		accumulateText bool
	}
)

var (
	inheritPolicy = mergePolicy{name: "inherit", rightWins: true, accumulateText: true}
	importPolicy  = mergePolicy{name: "import", dedupText: true}
	extendPolicy  = mergePolicy{name: "extend", rightWins: true, accumulateText: true}
)

// mergeContent combines two block contents under the given policy. Neither
// operand is mutated; the result shares no storage with either.
func mergeContent(left, right document.BlockContent, p mergePolicy) document.BlockContent {
	switch {
	case left.Kind == document.ArrayContent && right.Kind == document.ArrayContent:
		return document.NewArray(document.AppendUnique(nil, left.Items, right.Items)...)
	case left.Kind == document.ArrayContent || right.Kind == document.ArrayContent:
		// An array meeting any other shape is a conflict; the policy
		// winner replaces the loser wholesale.
		if p.rightWins {
			return right.Clone()
		}
		return left.Clone()
	case left.Kind == document.TextContent && right.Kind == document.TextContent:
		return document.NewText(mergeText(left.Text, right.Text, p))
	}

	// Every remaining combination involves at least one object or mixed
	// operand. Prose halves join as text, structured halves merge
	// recursively, and the result is promoted to whichever shape the
	// combined pieces demand.
	text := mergeText(left.Text, right.Text, p)
	props := mergeProps(left.Props, right.Props, p)
	switch {
	case text != "" && len(props) > 0:
		return document.NewMixed(text, props)
	case text != "":
		return document.NewText(text)
	default:
		if props == nil {
			props = map[string]document.Value{}
		}
		return document.NewObject(props)
	}
}

// mergeProps merges two property maps key by key. Keys present on only one
// side pass through; shared keys recurse through mergeValue.
func mergeProps(left, right map[string]document.Value, p mergePolicy) map[string]document.Value {
	if left == nil && right == nil {
		return nil
	}
	out := make(map[string]document.Value, len(left)+len(right))
	for k, lv := range left {
		rv, shared := right[k]
		if !shared {
			out[k] = lv.Clone()
			continue
		}
		out[k] = mergeValue(lv, rv, p)
	}
	for k, rv := range right {
		if _, shared := left[k]; !shared {
			out[k] = rv.Clone()
		}
	}
	return out
}

// mergeValue combines two values that collided under the same key.
func mergeValue(left, right document.Value, p mergePolicy) document.Value {
	switch {
	case left.Kind == document.ArrayValue && right.Kind == document.ArrayValue:
		return document.Array(document.AppendUnique(nil, left.Items, right.Items)...)
	case left.Kind == document.MapValue && right.Kind == document.MapValue:
		return document.Map(mergeProps(left.Props, right.Props, p))
	case left.Kind == document.TextValue && right.Kind == document.TextValue && p.accumulateText:
		return document.Text(mergeText(left.Str, right.Str, p))
	}
	if p.rightWins {
		return right.Clone()
	}
	return left.Clone()
}

// mergeText joins two prose fragments with a blank line between them. Under
// a dedup-aware policy a fragment already contained in the other side is
// dropped instead of repeated.
func mergeText(left, right string, p mergePolicy) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	if p.dedupText {
		if strings.Contains(left, right) {
			return left
		}
		if strings.Contains(right, left) {
			return right
		}
	}
	return left + "\n\n" + right
}
