package parser

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/mdxdigest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MDXParser handles MDX fragments using goldmark plus the Dialect extension.
type MDXParser struct{}

func (p *MDXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseSource(goldmark.New(goldmark.WithExtensions(Dialect)), src, filename)
}

// MarkdownParser handles plain Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseSource(goldmark.New(), src, filename)
}

func parseSource(md goldmark.Markdown, src []byte, filename string) (*doctree.DocTree, error) {
	pc := gmparser.NewContext()
	doc := md.Parser().Parse(text.NewReader(src), gmparser.WithContext(pc))
	if err := dialectError(pc); err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
		Root:  &doctree.Node{Kind: doctree.KindDocument},
	}

	var blocks []ast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, n)
	}

	spans := blockSpans(blocks, src)
	for i, n := range blocks {
		node := convertNode(n)
		node.Raw = string(src[spans[i].start:spans[i].stop])
		tree.Root.Append(node)
	}
	return tree, nil
}

// convertNode maps a goldmark block onto a structural node. Only container
// kinds recurse.
func convertNode(n ast.Node) *doctree.Node {
	var node *doctree.Node
	switch v := n.(type) {
	case *ast.Heading:
		node = &doctree.Node{Kind: doctree.KindHeading, Level: v.Level}
	case *ast.Paragraph, *ast.TextBlock:
		node = &doctree.Node{Kind: doctree.KindParagraph}
	case *ast.List:
		node = &doctree.Node{Kind: doctree.KindList}
	case *ast.ListItem:
		node = &doctree.Node{Kind: doctree.KindListItem}
	case *ast.Blockquote:
		node = &doctree.Node{Kind: doctree.KindBlockquote}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		node = &doctree.Node{Kind: doctree.KindCodeBlock}
	case *ast.ThematicBreak:
		node = &doctree.Node{Kind: doctree.KindThematicBreak}
	case *ast.HTMLBlock:
		node = &doctree.Node{Kind: doctree.KindHTML}
	case *ImportExportBlock:
		node = &doctree.Node{Kind: doctree.KindImportExport}
	case *ComponentBlock:
		node = &doctree.Node{Kind: doctree.KindComponent, Name: v.Name}
	default:
		node = &doctree.Node{Kind: doctree.KindOther}
	}

	if node.Kind.IsContainer() {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Type() == ast.TypeBlock {
				node.Append(convertNode(c))
			}
		}
	}
	return node
}

type span struct {
	start, stop int
	exact       bool
}

// blockSpans tiles src into one byte range per top-level block. goldmark
// does not record where container markers, fences or thematic breaks start,
// so a block begins at the line of its first recorded segment and runs to
// the start of the next block. Blocks with no segment at all get an empty
// span and their text stays with the preceding block. Dialect blocks know
// their exact last line; the block after one starts at the first non-blank
// line following it.
func blockSpans(blocks []ast.Node, src []byte) []span {
	spans := make([]span, len(blocks))
	for i, n := range blocks {
		start := firstOffset(n)
		switch {
		case i == 0:
			start = 0
		case spans[i-1].exact:
			start = skipBlankLines(src, spans[i-1].stop)
		case start >= 0:
			start = lineStart(src, start)
		}
		spans[i].start = start
		if isDialectBlock(n) {
			if end := lastLineEnd(n, src); end >= 0 {
				spans[i].exact = true
				spans[i].stop = end
			}
		}
	}

	next := len(src)
	for i := len(blocks) - 1; i >= 0; i-- {
		if spans[i].start < 0 || spans[i].start > next {
			spans[i].start = next
		}
		spans[i].stop = next
		next = spans[i].start
	}
	return spans
}

func isDialectBlock(n ast.Node) bool {
	k := n.Kind()
	return k == KindImportExportBlock || k == KindComponentBlock
}

// firstOffset returns the source offset of the first segment recorded for
// n or its block descendants, or -1.
func firstOffset(n ast.Node) int {
	if n.Type() != ast.TypeBlock {
		return -1
	}
	if fc, ok := n.(*ast.FencedCodeBlock); ok && fc.Info != nil {
		return fc.Info.Segment.Start
	}
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := firstOffset(c); off >= 0 {
			return off
		}
	}
	return -1
}

func lastLineEnd(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return -1
	}
	end := lines.At(lines.Len() - 1).Stop
	for end < len(src) && (end == 0 || src[end-1] != '\n') {
		end++
	}
	return end
}

func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

func skipBlankLines(src []byte, pos int) int {
	for pos < len(src) {
		end := pos
		for end < len(src) && src[end] != '\n' {
			end++
		}
		if end < len(src) {
			end++
		}
		if !util.IsBlank(src[pos:end]) {
			break
		}
		pos = end
	}
	return pos
}
