// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"

	"promptscript-cli/pkg/document"
)

// parseParams consumes a @params block:
//
//	@params {
//	  port: number = 3000
//	  mode?: enum(dev, prod)
//	  team: string
//	}
//
// A trailing `?` on the name marks the parameter optional; `= value` sets a
// default. Defaults are type-checked here so a broken template document
// fails at parse time, not at its first call site.
func (r *run) parseParams(line, col int) {
	r.s.skipSpace()
	if !r.s.consume("{") {
		r.errorAt(line, col, "parse_error", "@params: expected { declarations }")
		return
	}
	for {
		r.s.skipSpace()
		if r.s.eof() {
			r.errorAt(r.s.line, r.s.col, "parse_error", "unterminated @params block")
			return
		}
		if r.s.peek() == '}' {
			r.s.next()
			return
		}

		declLine, declCol := r.s.line, r.s.col
		name := r.s.readWord()
		if name == "" {
			r.errorAt(declLine, declCol, "parse_error", "unexpected %q in @params", string(r.s.peek()))
			r.s.next()
			continue
		}

		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		if !validBlockName(name) {
			r.errorAt(declLine, declCol, "bad_param_name", "invalid parameter name %q", name)
			r.s.skipLine()
			continue
		}

		r.s.skipInline()
		if r.s.peek() != ':' {
			r.errorAt(declLine, declCol, "parse_error", "parameter %s: expected : type", name)
			r.s.skipLine()
			continue
		}
		r.s.next()

		def, ok := r.parseParamType(name, declLine, declCol)
		if !ok {
			continue
		}
		def.Name = name
		def.Optional = optional

		r.s.skipInline()
		if r.s.peek() == '=' {
			r.s.next()
			val := r.parseValue(false)
			if !def.Accepts(val) {
				r.errorAt(declLine, declCol, "bad_param_default",
					"parameter %s: default %s does not satisfy type %s", name, val.StringForm(), def.TypeLabel())
			} else {
				def.Default = &val
			}
		}

		if r.doc.Param(name) != nil {
			r.errorAt(declLine, declCol, "duplicate_param", "duplicate parameter %q; keeping the first", name)
			continue
		}
		r.doc.Params = append(r.doc.Params, def)
	}
}

func (r *run) parseParamType(name string, line, col int) (document.ParamDefinition, bool) {
	r.s.skipInline()
	word := r.s.readWord()
	switch word {
	case "string":
		return document.ParamDefinition{Type: document.StringParam}, true
	case "number":
		return document.ParamDefinition{Type: document.NumberParam}, true
	case "boolean":
		return document.ParamDefinition{Type: document.BooleanParam}, true
	case "enum":
		def := document.ParamDefinition{Type: document.EnumParam}
		r.s.skipInline()
		if !r.s.consume("(") {
			r.errorAt(line, col, "parse_error", "parameter %s: enum needs (options)", name)
			r.s.skipLine()
			return def, false
		}
		for {
			r.s.skipSpace()
			if r.s.eof() {
				r.errorAt(r.s.line, r.s.col, "parse_error", "parameter %s: unterminated enum options", name)
				return def, false
			}
			switch {
			case r.s.peek() == ')':
				r.s.next()
				if len(def.EnumOptions) == 0 {
					r.errorAt(line, col, "bad_param_type", "parameter %s: enum needs at least one option", name)
					return def, false
				}
				return def, true
			case r.s.peek() == ',':
				r.s.next()
			case r.s.peek() == '"' || r.s.peek() == '\'':
				quote := r.s.next()
				opt, closed := r.s.readQuoted(quote)
				if !closed {
					r.errorAt(line, col, "parse_error", "parameter %s: unterminated enum option", name)
				}
				def.EnumOptions = append(def.EnumOptions, opt)
			default:
				opt := r.s.readWord()
				if opt == "" {
					r.errorAt(r.s.line, r.s.col, "parse_error", "parameter %s: unexpected %q in enum options", name, string(r.s.peek()))
					r.s.next()
					continue
				}
				def.EnumOptions = append(def.EnumOptions, opt)
			}
		}
	default:
		r.errorAt(line, col, "bad_param_type", "parameter %s: unknown type %q (expected string, number, boolean, or enum)", name, word)
		r.s.skipLine()
		return document.ParamDefinition{}, false
	}
}
