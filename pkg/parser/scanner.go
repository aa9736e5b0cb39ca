// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner is a rune cursor over one source file with line/column tracking.
// The parser consumes it directly; there is no separate token stream.
type scanner struct {
	src  string
	pos  int
	line int
	col  int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, col: 1}
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return r
}

func (s *scanner) next() rune {
	if s.eof() {
		return 0
	}
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

// hasPrefix reports whether the remaining input starts with the literal.
func (s *scanner) hasPrefix(lit string) bool {
	return strings.HasPrefix(s.src[s.pos:], lit)
}

// consume advances past the literal when it is next in the input.
func (s *scanner) consume(lit string) bool {
	if !s.hasPrefix(lit) {
		return false
	}
	for range lit {
		s.next()
	}
	return true
}

// skipInline advances past spaces and tabs but stops at newlines, which are
// significant for list items and bare scalars.
func (s *scanner) skipInline() {
	for !s.eof() {
		if r := s.peek(); r == ' ' || r == '\t' || r == '\r' {
			s.next()
			continue
		}
		return
	}
}

// skipSpace advances past all whitespace and comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		r := s.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			s.next()
		case r == '#':
			s.skipLine()
		default:
			return
		}
	}
}

// skipLine advances to just past the next newline.
func (s *scanner) skipLine() {
	for !s.eof() {
		if s.next() == '\n' {
			return
		}
	}
}

// readWord returns the next run of non-whitespace, non-structural runes
// (identifiers, references, dotted paths, bare keywords).
func (s *scanner) readWord() string {
	start := s.pos
	for !s.eof() {
		r := s.peek()
		if unicode.IsSpace(r) || strings.ContainsRune("{}[]():,#", r) {
			break
		}
		s.next()
	}
	return s.src[start:s.pos]
}

// readRestOfLine returns everything up to the newline (or a closing brace /
// comment), trimmed. Used for `- item` lines and unquoted scalar values.
func (s *scanner) readRestOfLine(stopAtComma bool) string {
	start := s.pos
	for !s.eof() {
		r := s.peek()
		if r == '\n' || r == '}' || r == ']' || r == '#' || (stopAtComma && r == ',') {
			break
		}
		s.next()
	}
	return strings.TrimSpace(s.src[start:s.pos])
}

// readQuoted consumes a single- or double-quoted string whose opening quote
// has already been consumed. It returns the body and whether the string was
// terminated before the line or file ended.
func (s *scanner) readQuoted(quote rune) (string, bool) {
	var sb strings.Builder
	for !s.eof() {
		r := s.peek()
		if r == '\n' {
			return sb.String(), false
		}
		s.next()
		if r == quote {
			return sb.String(), true
		}
		if r == '\\' && !s.eof() {
			esc := s.next()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '\'', '"':
				sb.WriteRune(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), false
}

// readDocstring consumes a triple-quoted docstring whose opening `"""` has
// already been consumed. The body is dedented: the shortest leading
// whitespace common to all non-blank lines is stripped, so block
// indentation does not leak into prose.
func (s *scanner) readDocstring() (string, bool) {
	start := s.pos
	for !s.eof() {
		if s.hasPrefix(`"""`) {
			body := s.src[start:s.pos]
			s.consume(`"""`)
			return dedent(body), true
		}
		s.next()
	}
	return dedent(s.src[start:s.pos]), false
}

func dedent(body string) string {
	lines := strings.Split(body, "\n")
	// Drop a blank first line (the newline right after the opening quotes)
	// and trailing indentation-only last line (before the closing quotes).
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	margin := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return strings.TrimRight(strings.Join(lines, "\n"), " \t")
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t")
}
