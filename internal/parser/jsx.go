package parser

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html/atom"
)

type tagKind int

const (
	tagOpen tagKind = iota
	tagClose
	tagSelfClosing
	tagComment
)

type jsxTag struct {
	kind tagKind
	name string
	end  int // index just past the closing '>'
}

type scanResult int

const (
	scanTag scanResult = iota
	scanText
	scanIncomplete
)

// componentStart reports whether line opens a component block and returns
// the component name ("" for a fragment).
func componentStart(line []byte) (string, bool) {
	if len(line) < 2 || line[0] != '<' {
		return "", false
	}
	j := 1
	if line[j] == '/' {
		j++
	}
	start := j
	for j < len(line) && isNameByte(line[j]) {
		j++
	}
	name := string(line[start:j])
	if name == "" {
		return "", j < len(line) && line[j] == '>'
	}
	if !isLetter(name[0]) || !endsName(line, j) {
		return "", false
	}
	return name, isComponentName(name)
}

// isComponentName reports whether a tag name is JSX rather than HTML.
// atom lookups are case-sensitive, so <Meta> is a component and <meta>
// is not.
func isComponentName(name string) bool {
	return name == "" || atom.Lookup([]byte(name)) == 0
}

func isVoidElement(name string) bool {
	switch atom.Lookup([]byte(name)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// scanTags walks src and tracks JSX element nesting. It returns the number
// of elements still open, whether src ends inside a tag or expression, and
// an error wrapping ErrUnbalancedTag on a stray or mismatched closing tag.
// Markdown code spans and fenced code inside an open element are content.
func scanTags(src []byte) (depth int, pending bool, err error) {
	var stack []string
	for i := 0; i < len(src); {
		if len(stack) > 0 && (i == 0 || src[i-1] == '\n') {
			if end, ok := skipFence(src, i); ok {
				if end < 0 {
					return len(stack), true, nil
				}
				i = end
				continue
			}
		}
		switch src[i] {
		case '`':
			if len(stack) == 0 {
				i++
				continue
			}
			i = skipCodeSpan(src, i)
		case '<':
			tag, res := readTag(src, i)
			switch res {
			case scanIncomplete:
				return len(stack), true, nil
			case scanText:
				i++
				continue
			}
			switch tag.kind {
			case tagOpen:
				if !isVoidElement(tag.name) {
					stack = append(stack, tag.name)
				}
			case tagClose:
				if len(stack) == 0 {
					return 0, false, fmt.Errorf("%w: </%s> has no opening tag", ErrUnbalancedTag, tag.name)
				}
				if top := stack[len(stack)-1]; top != tag.name {
					return len(stack), false, fmt.Errorf("%w: </%s> closes <%s>", ErrUnbalancedTag, tag.name, top)
				}
				stack = stack[:len(stack)-1]
			}
			i = tag.end
		case '{':
			if len(stack) == 0 {
				i++
				continue
			}
			end := skipExpression(src, i)
			if end < 0 {
				return len(stack), true, nil
			}
			i = end
		default:
			i++
		}
	}
	return len(stack), false, nil
}

// readTag reads the tag starting at src[i] == '<'.
func readTag(src []byte, i int) (jsxTag, scanResult) {
	j := i + 1
	if j >= len(src) {
		return jsxTag{}, scanIncomplete
	}
	if bytes.HasPrefix(src[j:], []byte("!--")) {
		end := bytes.Index(src[j+3:], []byte("-->"))
		if end < 0 {
			return jsxTag{}, scanIncomplete
		}
		return jsxTag{kind: tagComment, end: j + 3 + end + 3}, scanTag
	}

	kind := tagOpen
	if src[j] == '/' {
		kind = tagClose
		j++
	}
	start := j
	for j < len(src) && isNameByte(src[j]) {
		j++
	}
	name := string(src[start:j])
	if j >= len(src) {
		return jsxTag{}, scanIncomplete
	}
	if name == "" {
		if src[j] == '>' {
			return jsxTag{kind: kind, end: j + 1}, scanTag
		}
		return jsxTag{}, scanText
	}
	if !isLetter(name[0]) || !endsName(src, j) {
		return jsxTag{}, scanText
	}

	for j < len(src) {
		switch src[j] {
		case '"', '\'', '`':
			end := skipString(src, j)
			if end < 0 {
				return jsxTag{}, scanIncomplete
			}
			j = end
		case '{':
			end := skipExpression(src, j)
			if end < 0 {
				return jsxTag{}, scanIncomplete
			}
			j = end
		case '/':
			if j+1 < len(src) && src[j+1] == '>' {
				return jsxTag{kind: tagSelfClosing, name: name, end: j + 2}, scanTag
			}
			j++
		case '>':
			return jsxTag{kind: kind, name: name, end: j + 1}, scanTag
		default:
			j++
		}
	}
	return jsxTag{}, scanIncomplete
}

// skipExpression returns the index just past the brace matching src[i],
// or -1 if src ends first.
func skipExpression(src []byte, i int) int {
	depth := 0
	for k := i; k < len(src); k++ {
		switch src[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return k + 1
			}
		case '"', '\'', '`':
			end := skipString(src, k)
			if end < 0 {
				return -1
			}
			k = end - 1
		case '/':
			if k+1 >= len(src) {
				continue
			}
			switch src[k+1] {
			case '/':
				nl := bytes.IndexByte(src[k:], '\n')
				if nl < 0 {
					return -1
				}
				k += nl
			case '*':
				end := bytes.Index(src[k+2:], []byte("*/"))
				if end < 0 {
					return -1
				}
				k += 2 + end + 1
			}
		}
	}
	return -1
}

// skipCodeSpan returns the index just past the Markdown code span opening
// at src[i]. A backtick run with no closing run of the same length before
// a blank line is literal text.
func skipCodeSpan(src []byte, i int) int {
	n := runLength(src, i, '`')
	for k := i + n; k < len(src); {
		switch {
		case src[k] == '`':
			m := runLength(src, k, '`')
			if m == n {
				return k + m
			}
			k += m
		case src[k] == '\n' && blankLineAt(src, k+1):
			return i + n
		default:
			k++
		}
	}
	return i + n
}

// skipFence checks for a fenced code block opening on the line at i. It
// returns the index just past the closing fence line, or -1 if src ends
// before the fence closes.
func skipFence(src []byte, i int) (int, bool) {
	j := indentEnd(src, i)
	if j >= len(src) || (src[j] != '`' && src[j] != '~') {
		return 0, false
	}
	fence := src[j]
	n := runLength(src, j, fence)
	if n < 3 {
		return 0, false
	}
	if fence == '`' && bytes.IndexByte(src[j+n:lineEnd(src, j)], '`') >= 0 {
		return 0, false
	}
	for k := lineEnd(src, i); k < len(src); k = lineEnd(src, k) {
		m := indentEnd(src, k)
		if m >= len(src) || src[m] != fence {
			continue
		}
		r := runLength(src, m, fence)
		if r >= n && len(bytes.TrimSpace(src[m+r:lineEnd(src, m)])) == 0 {
			return lineEnd(src, k), true
		}
	}
	return -1, true
}

// indentEnd skips up to three leading spaces of the line at i.
func indentEnd(src []byte, i int) int {
	j := i
	for j < len(src) && j-i < 3 && src[j] == ' ' {
		j++
	}
	return j
}

// lineEnd returns the index just past the newline ending the line that
// contains i, or len(src).
func lineEnd(src []byte, i int) int {
	if nl := bytes.IndexByte(src[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}
	return len(src)
}

func blankLineAt(src []byte, i int) bool {
	if i >= len(src) {
		return false
	}
	return len(bytes.TrimSpace(src[i:lineEnd(src, i)])) == 0
}

func runLength(src []byte, i int, c byte) int {
	n := 0
	for i+n < len(src) && src[i+n] == c {
		n++
	}
	return n
}

// skipString returns the index just past the quote closing the string
// literal that starts at src[i], or -1 if src ends first.
func skipString(src []byte, i int) int {
	quote := src[i]
	for k := i + 1; k < len(src); k++ {
		switch src[k] {
		case '\\':
			k++
		case quote:
			return k + 1
		}
	}
	return -1
}

// endsName reports whether the tag name ending at j is followed by a
// character that may legally follow it.
func endsName(src []byte, j int) bool {
	if j >= len(src) {
		return true
	}
	switch src[j] {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '_'
}
