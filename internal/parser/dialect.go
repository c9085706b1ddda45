package parser

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindImportExportBlock is the goldmark node kind of a module-level
// import/export statement.
var KindImportExportBlock = ast.NewNodeKind("ImportExportBlock")

// ImportExportBlock holds the lines of an import or export statement.
type ImportExportBlock struct {
	ast.BaseBlock
}

func NewImportExportBlock() *ImportExportBlock {
	return &ImportExportBlock{}
}

func (n *ImportExportBlock) Kind() ast.NodeKind { return KindImportExportBlock }

func (n *ImportExportBlock) IsRaw() bool { return true }

func (n *ImportExportBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindComponentBlock is the goldmark node kind of a JSX component block.
var KindComponentBlock = ast.NewNodeKind("ComponentBlock")

// ComponentBlock holds the lines of a top-level JSX element, from its
// opening tag to the line where its tags balance.
type ComponentBlock struct {
	ast.BaseBlock
	Name string

	complete bool
	err      error
}

func NewComponentBlock(name string) *ComponentBlock {
	return &ComponentBlock{Name: name}
}

func (n *ComponentBlock) Kind() ast.NodeKind { return KindComponentBlock }

func (n *ComponentBlock) IsRaw() bool { return true }

func (n *ComponentBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// rescan re-runs the tag scanner over every line collected so far.
func (n *ComponentBlock) rescan(source []byte) {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	depth, pending, err := scanTags(buf.Bytes())
	n.err = err
	n.complete = err == nil && !pending && depth == 0
}

var dialectErrorKey = gmparser.NewContextKey()

// recordDialectError keeps the first error seen during a parse.
func recordDialectError(pc gmparser.Context, err error) {
	if pc.Get(dialectErrorKey) == nil {
		pc.Set(dialectErrorKey, err)
	}
}

func dialectError(pc gmparser.Context) error {
	if err, ok := pc.Get(dialectErrorKey).(error); ok {
		return err
	}
	return nil
}

var importExportPrefix = regexp.MustCompile(`^(?:import|export)[\s{*]`)

type importExportParser struct{}

// NewImportExportParser returns a block parser for top-level import/export
// statements. A statement runs until the next blank line.
func NewImportExportParser() gmparser.BlockParser {
	return &importExportParser{}
}

func (b *importExportParser) Trigger() []byte {
	return []byte{'i', 'e'}
}

func (b *importExportParser) Open(parent ast.Node, reader text.Reader, pc gmparser.Context) (ast.Node, gmparser.State) {
	if parent.Kind() != ast.KindDocument || pc.BlockOffset() != 0 {
		return nil, gmparser.NoChildren
	}
	line, segment := reader.PeekLine()
	if !importExportPrefix.Match(line) {
		return nil, gmparser.NoChildren
	}
	node := NewImportExportBlock()
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return node, gmparser.NoChildren
}

func (b *importExportParser) Continue(node ast.Node, reader text.Reader, pc gmparser.Context) gmparser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) {
		return gmparser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return gmparser.Continue | gmparser.NoChildren
}

func (b *importExportParser) Close(node ast.Node, reader text.Reader, pc gmparser.Context) {}

func (b *importExportParser) CanInterruptParagraph() bool { return false }

func (b *importExportParser) CanAcceptIndentedLine() bool { return false }

type componentParser struct{}

// NewComponentParser returns a block parser for top-level JSX component
// blocks. Lowercase tags naming known HTML elements are left to goldmark's
// HTML block parser.
func NewComponentParser() gmparser.BlockParser {
	return &componentParser{}
}

func (b *componentParser) Trigger() []byte {
	return []byte{'<'}
}

func (b *componentParser) Open(parent ast.Node, reader text.Reader, pc gmparser.Context) (ast.Node, gmparser.State) {
	if parent.Kind() != ast.KindDocument {
		return nil, gmparser.NoChildren
	}
	pos := pc.BlockOffset()
	if pos < 0 || pos > 3 {
		return nil, gmparser.NoChildren
	}
	line, segment := reader.PeekLine()
	if pos >= len(line) || line[pos] != '<' {
		return nil, gmparser.NoChildren
	}
	name, ok := componentStart(line[pos:])
	if !ok {
		return nil, gmparser.NoChildren
	}
	node := NewComponentBlock(name)
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	node.rescan(reader.Source())
	return node, gmparser.NoChildren
}

func (b *componentParser) Continue(node ast.Node, reader text.Reader, pc gmparser.Context) gmparser.State {
	n := node.(*ComponentBlock)
	if n.complete || n.err != nil {
		return gmparser.Close
	}
	_, segment := reader.PeekLine()
	n.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	n.rescan(reader.Source())
	return gmparser.Continue | gmparser.NoChildren
}

func (b *componentParser) Close(node ast.Node, reader text.Reader, pc gmparser.Context) {
	n := node.(*ComponentBlock)
	if n.err == nil && !n.complete {
		n.err = fmt.Errorf("%w: <%s>", ErrUnclosedComponent, n.Name)
	}
	if n.err != nil {
		recordDialectError(pc, n.err)
	}
}

func (b *componentParser) CanInterruptParagraph() bool { return false }

func (b *componentParser) CanAcceptIndentedLine() bool { return false }

type dialect struct{}

// Dialect is a goldmark extension that recognizes the two MDX constructs
// this package cares about: top-level import/export statements and JSX
// component blocks.
var Dialect goldmark.Extender = &dialect{}

func (e *dialect) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(gmparser.WithBlockParsers(
		util.Prioritized(NewImportExportParser(), 50),
		// Ahead of the HTML block parser (900).
		util.Prioritized(NewComponentParser(), 850),
	))
}
