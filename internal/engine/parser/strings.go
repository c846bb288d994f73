package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// stringValue decodes a `string` node. The prefix letters live in the
// string_start token together with the opening quotes.
func (c *converter) stringValue(n *sitter.Node) (string, bool) {
	var start, end *sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		switch child := n.Child(i); child.Kind() {
		case "string_start":
			start = child
		case "string_end":
			end = child
		}
	}
	if start == nil || end == nil {
		return strings.Trim(c.text(n), `"'`), false
	}

	prefix := strings.ToLower(strings.TrimRight(c.text(start), `"'`))
	body := string(c.source[start.EndByte():end.StartByte()])
	isBytes := strings.ContainsRune(prefix, 'b')
	if strings.ContainsRune(prefix, 'r') {
		return body, isBytes
	}
	return unescapePython(body, isBytes), isBytes
}

// unescapePython applies Python's backslash escapes. Unknown escapes are kept
// verbatim, as Python does. Bytes literals do not interpret \u, \U or \N.
func unescapePython(s string, isBytes bool) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 == len(s) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch esc := s[i]; esc {
		case '\n':
			// Line continuation.
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&b, rune(v), isBytes)
			i = j - 1
		case 'x':
			if v, ok := hexEscape(s, i+1, 2); ok {
				writeCode(&b, rune(v), isBytes)
				i += 2
				continue
			}
			b.WriteString(`\x`)
		case 'u', 'U':
			width := 4
			if esc == 'U' {
				width = 8
			}
			if v, ok := hexEscape(s, i+1, width); ok && !isBytes {
				b.WriteRune(rune(v))
				i += width
				continue
			}
			b.WriteByte('\\')
			b.WriteByte(esc)
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String()
}

func hexEscape(s string, at, width int) (uint64, bool) {
	if at+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+width], 16, 32)
	return v, err == nil
}

// writeCode writes a numeric escape: a raw byte in bytes literals, a code
// point otherwise.
func writeCode(b *strings.Builder, r rune, isBytes bool) {
	if isBytes || r < utf8.RuneSelf {
		b.WriteByte(byte(r))
		return
	}
	b.WriteRune(r)
}
