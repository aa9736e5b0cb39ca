// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"regexp"
	"strings"

	"promptscript-cli/pkg/document"
)

// placeholderPattern matches {{name}} expressions embedded in prose and
// quoted strings. Whitespace padding inside the braces is tolerated.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_-]*)\s*\}\}`)

type binding map[string]document.Value

// bindParams checks the arguments supplied at an @inherit or @use call site
// against the referenced document's declared parameters and produces the
// binding used for interpolation. Unknown arguments, type mismatches, and
// required parameters left without an argument or default each yield an
// error diagnostic; a binding accompanied by error diagnostics must not be
// applied.
func bindParams(target *document.Document, args []document.ParamArgument, site string) (binding, []document.Diagnostic) {
	var diags []document.Diagnostic
	b := make(binding, len(target.Params))

	for _, arg := range args {
		def := target.Param(arg.Name)
		if def == nil {
			diags = append(diags, document.Errorf("unknown_parameter", site,
				"%s does not declare parameter %q", refLabel(target), arg.Name))
			continue
		}
		if !def.Accepts(arg.Value) {
			diags = append(diags, document.Errorf("parameter_type_mismatch", site,
				"parameter %q of %s wants %s, got %s", arg.Name, refLabel(target),
				def.TypeLabel(), valueLabel(arg.Value)))
			continue
		}
		b[arg.Name] = arg.Value.Clone()
	}

	for i := range target.Params {
		def := &target.Params[i]
		if _, bound := b[def.Name]; bound {
			continue
		}
		switch {
		case def.Default != nil:
			b[def.Name] = def.Default.Clone()
		case !def.Optional:
			diags = append(diags, document.Errorf("missing_parameter", site,
				"required parameter %q of %s is not bound and has no default", def.Name, refLabel(target)))
		}
	}
	return b, diags
}

// hasErrors reports whether any diagnostic in the slice is an error.
func hasErrors(diags []document.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == document.SeverityError {
			return true
		}
	}
	return false
}

// interpolate substitutes bound parameters throughout a document: template
// expressions in value position take the bound value verbatim, placeholders
// inside prose and string scalars are replaced by the value's string form.
// A placeholder naming an unbound parameter yields an error diagnostic and
// stays in place so the failure is visible in the output.
//
// The input document is never mutated. With an empty binding and no stray
// placeholders it is returned as-is.
func interpolate(doc *document.Document, b binding) (*document.Document, []document.Diagnostic) {
	if doc == nil {
		return nil, nil
	}
	ip := &interpolator{binding: b, location: doc.Location}

	out := doc.Clone()
	out.Meta = ip.props(out.Meta)
	for i := range out.Blocks {
		out.Blocks[i].Content = ip.content(out.Blocks[i].Content)
	}
	for i := range out.Extends {
		out.Extends[i].Content = ip.content(out.Extends[i].Content)
	}
	if !ip.touched && len(ip.diags) == 0 {
		return doc, nil
	}
	return out, ip.diags
}

type interpolator struct {
	binding  binding
	location string
	diags    []document.Diagnostic
	touched  bool
}

func (ip *interpolator) content(c document.BlockContent) document.BlockContent {
	c.Text = ip.text(c.Text)
	c.Props = ip.props(c.Props)
	c.Items = ip.items(c.Items)
	return c
}

func (ip *interpolator) value(v document.Value) document.Value {
	switch v.Kind {
	case document.TemplateValue:
		bound, ok := ip.binding[v.Str]
		if !ok {
			ip.missing(v.Str)
			return v
		}
		ip.touched = true
		return bound.Clone()
	case document.StringValue, document.TextValue:
		v.Str = ip.text(v.Str)
		return v
	case document.ArrayValue:
		v.Items = ip.items(v.Items)
		return v
	case document.MapValue:
		v.Props = ip.props(v.Props)
		return v
	default:
		return v
	}
}

func (ip *interpolator) props(props map[string]document.Value) map[string]document.Value {
	for k, v := range props {
		props[k] = ip.value(v)
	}
	return props
}

func (ip *interpolator) items(items []document.Value) []document.Value {
	for i, v := range items {
		items[i] = ip.value(v)
	}
	return items
}

func (ip *interpolator) text(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		bound, ok := ip.binding[name]
		if !ok {
			ip.missing(name)
			return m
		}
		ip.touched = true
		return bound.StringForm()
	})
}

func (ip *interpolator) missing(name string) {
	ip.diags = append(ip.diags, document.Errorf("unbound_parameter", ip.location,
		"placeholder {{%s}} names a parameter that is not bound", name))
}

// refLabel names a document for diagnostics, preferring its location.
func refLabel(doc *document.Document) string {
	if doc.Location != "" {
		return doc.Location
	}
	return "referenced document"
}

// valueLabel names a value's shape for type-mismatch diagnostics.
func valueLabel(v document.Value) string {
	switch v.Kind {
	case document.NullValue:
		return "null"
	case document.StringValue:
		return "string"
	case document.NumberValue:
		return "number"
	case document.BoolValue:
		return "boolean"
	case document.ArrayValue:
		return "array"
	case document.MapValue:
		return "object"
	case document.TextValue:
		return "text"
	case document.TemplateValue:
		return "template expression"
	default:
		return "value"
	}
}
