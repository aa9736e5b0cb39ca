// SPDX-License-Identifier: MPL-2.0

package format

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"promptscript-cli/pkg/document"
)

// renderDocument renders a resolved document as one markdown file. Blocks
// keep document order; the skip predicate drops blocks another output file
// already covers (the claude target routes agents and skills into their own
// resource files).
func renderDocument(doc *document.Document, skip func(name string) bool) string {
	var sb strings.Builder

	title := metaString(doc, "name")
	if title == "" {
		title = "Instructions"
	}
	sb.WriteString("# " + title + "\n")
	if desc := metaString(doc, "description"); desc != "" {
		sb.WriteString("\n" + desc + "\n")
	}

	for _, b := range doc.Blocks {
		if skip != nil && skip(b.Name) {
			continue
		}
		sb.WriteString("\n## " + headingFor(b.Name) + "\n\n")
		renderContent(&sb, b.Content)
	}
	return sb.String()
}

func renderContent(sb *strings.Builder, c document.BlockContent) {
	switch c.Kind {
	case document.TextContent:
		sb.WriteString(strings.TrimRight(c.Text, "\n") + "\n")
	case document.ArrayContent:
		for _, item := range c.Items {
			renderListItem(sb, item, 0)
		}
	case document.ObjectContent:
		renderProps(sb, c.Props, 0)
	case document.MixedContent:
		if c.Text != "" {
			sb.WriteString(strings.TrimRight(c.Text, "\n") + "\n")
			if len(c.Props) > 0 {
				sb.WriteString("\n")
			}
		}
		renderProps(sb, c.Props, 0)
	}
}

func renderProps(sb *strings.Builder, props map[string]document.Value, depth int) {
	for _, key := range sortedKeys(props) {
		renderProp(sb, key, props[key], depth)
	}
}

func renderProp(sb *strings.Builder, key string, v document.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case document.MapValue:
		sb.WriteString(indent + "- **" + key + "**:\n")
		renderProps(sb, v.Props, depth+1)
	case document.ArrayValue:
		sb.WriteString(indent + "- **" + key + "**:\n")
		for _, item := range v.Items {
			renderListItem(sb, item, depth+1)
		}
	case document.TextValue:
		sb.WriteString(indent + "- **" + key + "**: " + indentFollowing(v.Str, indent+"  ") + "\n")
	default:
		sb.WriteString(indent + "- **" + key + "**: " + v.StringForm() + "\n")
	}
}

func renderListItem(sb *strings.Builder, v document.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case document.MapValue:
		sb.WriteString(indent + "-\n")
		renderProps(sb, v.Props, depth+1)
	case document.ArrayValue:
		sb.WriteString(indent + "-\n")
		for _, item := range v.Items {
			renderListItem(sb, item, depth+1)
		}
	default:
		sb.WriteString(indent + "- " + indentFollowing(v.StringForm(), indent+"  ") + "\n")
	}
}

// indentFollowing keeps multi-line values inside their list item by
// indenting every line after the first.
func indentFollowing(s, indent string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= 1 {
		return s
	}
	return lines[0] + "\n" + indent + strings.Join(lines[1:], "\n"+indent)
}

// headingFor turns a block name into a section heading: "max_line_length"
// reads "Max Line Length".
func headingFor(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func metaString(doc *document.Document, key string) string {
	v, ok := doc.Meta[key]
	if !ok {
		return ""
	}
	switch v.Kind {
	case document.StringValue, document.TextValue:
		return v.Str
	default:
		return v.StringForm()
	}
}

func sortedKeys(props map[string]document.Value) []string {
	keys := maps.Keys(props)
	slices.Sort(keys)
	return keys
}
