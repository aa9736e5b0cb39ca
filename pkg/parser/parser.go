// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"regexp"
	"strconv"
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

type (
	// Parser turns PromptScript source into document trees. A Parser is
	// stateless and safe for concurrent use; per-file state lives in the
	// run created by each Parse call.
	Parser struct {
		opts options
	}

	// run carries the state of parsing one file.
	run struct {
		s        *scanner
		location string
		doc      *document.Document
		diags    []document.Diagnostic
	}
)

// New builds a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Parse parses raw source text. location is used only for diagnostics; the
// resolver stamps the document's Location after a successful parse. The
// returned document is nil only when nothing useful survived; diagnostics
// report everything that went wrong either way.
func (p *Parser) Parse(raw, location string) (*document.Document, []document.Diagnostic) {
	if p.opts.expandEnv {
		raw = expandEnv(raw, p.opts.lookupEnv)
	}

	r := &run{
		s:        newScanner(raw),
		location: location,
		doc:      &document.Document{},
	}
	r.parseFile()

	if len(r.doc.Blocks) == 0 && r.doc.Inherit == nil && len(r.doc.Imports) == 0 &&
		len(r.doc.Extends) == 0 && r.doc.Meta == nil && len(r.doc.Params) == 0 {
		if len(r.diags) > 0 {
			return nil, r.diags
		}
	}
	return r.doc, r.diags
}

func (r *run) parseFile() {
	for {
		r.s.skipSpace()
		if r.s.eof() {
			return
		}
		line, col := r.s.line, r.s.col
		if r.s.peek() != '@' {
			r.errorAt(line, col, "parse_error", "expected a @-declaration, got %q", string(r.s.peek()))
			r.s.skipLine()
			continue
		}
		r.s.next() // '@'
		word := r.s.readWord()
		switch word {
		case "inherit":
			r.parseInherit(line, col)
		case "use":
			r.parseUse(line, col)
		case "extend":
			r.parseExtend(line, col)
		case "params":
			r.parseParams(line, col)
		case "meta":
			r.parseMeta(line, col)
		case "":
			r.errorAt(line, col, "parse_error", "dangling @ with no declaration name")
			r.s.skipLine()
		default:
			r.parseBlock(word, line, col)
		}
	}
}

func (r *run) parseInherit(line, col int) {
	r.s.skipInline()
	raw := r.s.readWord()
	ref, err := document.ParseReference(raw)
	if err != nil {
		r.errorAt(line, col, "bad_reference", "@inherit: %v", err)
		r.s.skipLine()
		return
	}
	args := r.parseWithArgs()
	if r.doc.Inherit != nil {
		r.errorAt(line, col, "duplicate_inherit", "a document has at most one @inherit; keeping the first (%s)", r.doc.Inherit.Ref.Raw)
		return
	}
	r.doc.Inherit = &document.InheritEdge{Ref: ref, Args: args}
}

func (r *run) parseUse(line, col int) {
	r.s.skipInline()
	raw := r.s.readWord()
	ref, err := document.ParseReference(raw)
	if err != nil {
		r.errorAt(line, col, "bad_reference", "@use: %v", err)
		r.s.skipLine()
		return
	}

	var alias types.Alias
	r.s.skipInline()
	if r.s.hasPrefix("as ") || r.s.hasPrefix("as\t") {
		r.s.consume("as")
		r.s.skipInline()
		alias = types.Alias(r.s.readWord())
		if ok, errs := alias.IsValid(); !ok || alias == "" {
			if len(errs) > 0 {
				r.errorAt(line, col, "bad_alias", "@use %s: %v", ref.Raw, errs[0])
			} else {
				r.errorAt(line, col, "bad_alias", "@use %s: empty alias after \"as\"", ref.Raw)
			}
			alias = ""
		}
	}

	args := r.parseWithArgs()
	r.doc.Imports = append(r.doc.Imports, document.ImportEdge{Ref: ref, Alias: alias, Args: args})
}

// parseWithArgs consumes an optional `with { ... }` argument object after an
// @inherit or @use reference.
func (r *run) parseWithArgs() []document.ParamArgument {
	r.s.skipInline()
	if !(r.s.hasPrefix("with ") || r.s.hasPrefix("with\t") || r.s.hasPrefix("with{") || r.s.hasPrefix("with\n")) {
		return nil
	}
	r.s.consume("with")
	r.s.skipSpace()
	line, col := r.s.line, r.s.col
	if !r.s.consume("{") {
		r.errorAt(line, col, "parse_error", "expected { after \"with\"")
		return nil
	}
	body := r.parseBody()
	if body.text != "" || len(body.items) > 0 {
		r.errorAt(line, col, "parse_error", "a with-argument object takes only name: value pairs")
	}
	args := make([]document.ParamArgument, 0, len(body.order))
	for _, name := range body.order {
		args = append(args, document.ParamArgument{Name: name, Value: body.props[name]})
	}
	return args
}

func (r *run) parseExtend(line, col int) {
	r.s.skipInline()
	path := r.s.readWord()
	if path == "" || !validExtendPath(path) {
		r.errorAt(line, col, "bad_extend_path", "@extend needs a dot-separated target path, got %q", path)
		r.s.skipLine()
		return
	}
	r.s.skipSpace()
	if !r.s.consume("{") {
		r.errorAt(line, col, "parse_error", "@extend %s: expected { content }", path)
		return
	}
	body := r.parseBody()
	content, ok := r.bodyToContent(body, line, col)
	if !ok {
		return
	}
	r.doc.Extends = append(r.doc.Extends, document.ExtendEdge{TargetPath: path, Content: content})
}

func (r *run) parseMeta(line, col int) {
	r.s.skipSpace()
	if !r.s.consume("{") {
		r.errorAt(line, col, "parse_error", "@meta: expected { fields }")
		return
	}
	body := r.parseBody()
	if body.text != "" || len(body.items) > 0 {
		r.warnAt(line, col, "meta_prose_ignored", "@meta carries only key: value fields; prose and list items were ignored")
	}
	if r.doc.Meta != nil {
		r.errorAt(line, col, "duplicate_block", "duplicate @meta block; keeping the first")
		return
	}
	meta := document.Metadata{}
	for k, v := range body.props {
		meta[k] = v
	}
	r.doc.Meta = meta
}

func (r *run) parseBlock(name string, line, col int) {
	if !validBlockName(name) {
		r.errorAt(line, col, "bad_block_name", "invalid block name %q", name)
		r.s.skipLine()
		return
	}
	r.s.skipSpace()
	if !r.s.consume("{") {
		r.errorAt(line, col, "parse_error", "@%s: expected { content }", name)
		return
	}
	body := r.parseBody()
	content, ok := r.bodyToContent(body, line, col)
	if !ok {
		return
	}
	if r.doc.FindBlock(name) != nil {
		r.errorAt(line, col, "duplicate_block", "duplicate block @%s; block names are unique within a document, keeping the first", name)
		return
	}
	r.doc.Blocks = append(r.doc.Blocks, document.Block{Name: name, Content: content})
}

// body is the raw harvest of one { ... } region before its content kind is
// decided.
type body struct {
	text  string
	props map[string]document.Value
	order []string
	items []document.Value
}

func (b *body) addText(s string) {
	if s == "" {
		return
	}
	if b.text == "" {
		b.text = s
		return
	}
	b.text += "\n\n" + s
}

// parseBody consumes entries up to the matching closing brace (already past
// the opening one).
func (r *run) parseBody() body {
	var b body
	b.props = map[string]document.Value{}
	for {
		r.s.skipSpace()
		if r.s.eof() {
			r.errorAt(r.s.line, r.s.col, "parse_error", "unterminated block: missing }")
			return b
		}
		line, col := r.s.line, r.s.col
		switch {
		case r.s.peek() == '}':
			r.s.next()
			return b

		case r.s.peek() == ',':
			// Separator between inline key: value pairs.
			r.s.next()

		case r.s.hasPrefix(`"""`):
			r.s.consume(`"""`)
			text, closed := r.s.readDocstring()
			if !closed {
				r.errorAt(line, col, "parse_error", "unterminated docstring")
			}
			b.addText(text)

		case r.s.peek() == '"' || r.s.peek() == '\'':
			quote := r.s.next()
			text, closed := r.s.readQuoted(quote)
			if !closed {
				r.errorAt(line, col, "parse_error", "unterminated string")
			}
			b.addText(text)

		case r.s.peek() == '-' && r.peekListItem():
			r.s.next() // '-'
			r.s.skipInline()
			b.items = append(b.items, r.parseValue(false))

		case r.s.peek() == '[':
			r.s.next()
			b.items = append(b.items, r.parseList().Items...)

		default:
			key := r.s.readWord()
			if key == "" {
				r.errorAt(line, col, "parse_error", "unexpected %q in block body", string(r.s.peek()))
				r.s.next()
				continue
			}
			r.s.skipInline()
			if r.s.peek() != ':' {
				// A bare line of prose.
				rest := r.s.readRestOfLine(false)
				b.addText(strings.TrimSpace(key + " " + rest))
				continue
			}
			r.s.next() // ':'
			val := r.parseValue(true)
			if _, dup := b.props[key]; dup {
				r.warnAt(line, col, "duplicate_key", "duplicate key %q; the later value wins", key)
			} else {
				b.order = append(b.order, key)
			}
			b.props[key] = val
		}
	}
}

// peekListItem distinguishes a `- item` list line from a negative number or
// a bare hyphenated word: a list dash is followed by whitespace.
func (r *run) peekListItem() bool {
	return r.s.hasPrefix("- ") || r.s.hasPrefix("-\t")
}

func (r *run) parseValue(stopAtComma bool) document.Value {
	r.s.skipInline()
	line, col := r.s.line, r.s.col
	switch {
	case r.s.hasPrefix(`"""`):
		r.s.consume(`"""`)
		text, closed := r.s.readDocstring()
		if !closed {
			r.errorAt(line, col, "parse_error", "unterminated docstring")
		}
		return document.Text(text)

	case r.s.peek() == '"' || r.s.peek() == '\'':
		quote := r.s.next()
		str, closed := r.s.readQuoted(quote)
		if !closed {
			r.errorAt(line, col, "parse_error", "unterminated string")
		}
		return document.String(str)

	case r.s.hasPrefix("{{"):
		r.s.consume("{{")
		r.s.skipInline()
		name := r.s.readWord()
		r.s.skipInline()
		if !r.s.consume("}}") {
			r.errorAt(line, col, "parse_error", "unterminated template expression {{%s", name)
		}
		if name == "" {
			r.errorAt(line, col, "parse_error", "empty template expression")
			return document.Null()
		}
		return document.TemplateExpr(name)

	case r.s.peek() == '{':
		r.s.next()
		nested := r.parseBody()
		return r.bodyToValue(nested)

	case r.s.peek() == '[':
		r.s.next()
		return r.parseList()

	default:
		return classifyScalar(r.s.readRestOfLine(stopAtComma))
	}
}

func (r *run) parseList() document.Value {
	var items []document.Value
	for {
		r.s.skipSpace()
		if r.s.eof() {
			r.errorAt(r.s.line, r.s.col, "parse_error", "unterminated list: missing ]")
			break
		}
		if r.s.peek() == ']' {
			r.s.next()
			break
		}
		if r.s.peek() == ',' {
			r.s.next()
			continue
		}
		before := r.s.pos
		item := r.parseValue(true)
		if r.s.pos == before {
			// The value position holds a rune parseValue cannot start from
			// (a stray brace, say). Skip it so the scan always advances.
			r.errorAt(r.s.line, r.s.col, "parse_error", "unexpected %q in list", string(r.s.peek()))
			r.s.next()
			continue
		}
		items = append(items, item)
	}
	return document.Array(items...)
}

// bodyToContent decides which BlockContent case a harvested body is. A body
// cannot mix list items with properties; prose combines with either nothing
// (Text) or properties (Mixed).
func (r *run) bodyToContent(b body, line, col int) (document.BlockContent, bool) {
	if len(b.items) > 0 && (len(b.props) > 0 || b.text != "") {
		r.errorAt(line, col, "mixed_block", "a block cannot mix list items with properties or prose")
		return document.BlockContent{}, false
	}
	switch {
	case len(b.items) > 0:
		return document.NewArray(b.items...), true
	case b.text != "" && len(b.props) > 0:
		return document.NewMixed(b.text, b.props), true
	case b.text != "":
		return document.NewText(b.text), true
	default:
		return document.NewObject(b.props), true
	}
}

// bodyToValue converts a nested { ... } region to a Value. Prose inside a
// nested object folds under the reserved "content" key, the same shape
// BlockContent.AsValue produces for Mixed content.
func (r *run) bodyToValue(b body) document.Value {
	switch {
	case len(b.items) > 0 && len(b.props) == 0 && b.text == "":
		return document.Array(b.items...)
	case b.text != "" && len(b.props) == 0:
		return document.Text(b.text)
	default:
		props := b.props
		if b.text != "" {
			props["content"] = document.Text(b.text)
		}
		return document.Map(props)
	}
}

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// classifyScalar types an unquoted scalar. Semver literals stay strings:
// `version: 1.2.3` is a version, not arithmetic.
func classifyScalar(raw string) document.Value {
	switch raw {
	case "":
		return document.Null()
	case "true":
		return document.Bool(true)
	case "false":
		return document.Bool(false)
	case "null":
		return document.Null()
	}
	if semverPattern.MatchString(raw) {
		return document.String(raw)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return document.Number(n)
	}
	return document.String(raw)
}

func validBlockName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func validExtendPath(path string) bool {
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

func (r *run) errorAt(line, col int, code, format string, args ...any) {
	d := document.Errorf(code, r.location, format, args...)
	d.Line, d.Column = line, col
	r.diags = append(r.diags, d)
}

func (r *run) warnAt(line, col int, code, format string, args ...any) {
	d := document.Warnf(code, r.location, format, args...)
	d.Line, d.Column = line, col
	r.diags = append(r.diags, d)
}
