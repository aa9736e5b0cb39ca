// SPDX-License-Identifier: MPL-2.0

package document

const (
	// TextContent is free-form prose.
	TextContent ContentKind = iota + 1
	// ObjectContent is a keyed collection of values.
	ObjectContent
	// ArrayContent is an ordered list of values.
	ArrayContent
	// MixedContent carries both free-form prose and keyed properties. A
	// PromptScript block may open with a docstring and follow with
	// properties, so neither Text nor Object alone can represent it.
	MixedContent
)

type (
	// ContentKind tags the active case of a BlockContent.
	ContentKind uint8

	// BlockContent is the closed variant for what a block holds. Exactly one
	// of the four cases is active, selected by Kind:
	//
	//   TextContent   -> Text
	//   ObjectContent -> Props
	//   ArrayContent  -> Items
	//   MixedContent  -> Text and Props
	BlockContent struct {
		Kind  ContentKind
		Text  string
		Props map[string]Value
		Items []Value
	}
)

// NewText returns text-only block content.
func NewText(text string) BlockContent {
	return BlockContent{Kind: TextContent, Text: text}
}

// NewObject returns object block content over the given properties.
func NewObject(props map[string]Value) BlockContent {
	return BlockContent{Kind: ObjectContent, Props: props}
}

// NewArray returns array block content over the given elements.
func NewArray(items ...Value) BlockContent {
	return BlockContent{Kind: ArrayContent, Items: items}
}

// NewMixed returns block content carrying both prose and properties.
func NewMixed(text string, props map[string]Value) BlockContent {
	return BlockContent{Kind: MixedContent, Text: text, Props: props}
}

// HasText reports whether the content carries a textual part.
func (c BlockContent) HasText() bool {
	return (c.Kind == TextContent || c.Kind == MixedContent) && c.Text != ""
}

// HasProps reports whether the content carries a keyed part.
func (c BlockContent) HasProps() bool {
	return (c.Kind == ObjectContent || c.Kind == MixedContent) && len(c.Props) > 0
}

// AsValue converts block content to a Value for nested-path addressing.
// Mixed content becomes a map with its prose under the reserved "content"
// key, matching how the language surfaces block prose as a property.
func (c BlockContent) AsValue() Value {
	switch c.Kind {
	case TextContent:
		return Text(c.Text)
	case ArrayContent:
		return Value{Kind: ArrayValue, Items: c.Items}
	case ObjectContent:
		return Value{Kind: MapValue, Props: c.Props}
	case MixedContent:
		props := make(map[string]Value, len(c.Props)+1)
		for k, v := range c.Props {
			props[k] = v
		}
		if c.Text != "" {
			props["content"] = Text(c.Text)
		}
		return Value{Kind: MapValue, Props: props}
	default:
		return Null()
	}
}
