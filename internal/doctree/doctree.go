package doctree

// Kind is the type tag of a structural node.
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindCodeBlock
	KindBlockquote
	KindThematicBreak
	KindHTML
	KindImportExport // module-level import/export statement
	KindComponent    // embedded JSX component block
	KindOther
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindParagraph:     "paragraph",
	KindHeading:       "heading",
	KindList:          "list",
	KindListItem:      "list_item",
	KindCodeBlock:     "code_block",
	KindBlockquote:    "blockquote",
	KindThematicBreak: "thematic_break",
	KindHTML:          "html",
	KindImportExport:  "import_export",
	KindComponent:     "component",
	KindOther:         "other",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsContainer reports whether nodes of this kind may hold children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindDocument, KindList, KindListItem, KindBlockquote:
		return true
	}
	return false
}

// IsDialect reports whether the kind only exists in MDX and has no plain
// Markdown rendering.
func (k Kind) IsDialect() bool {
	return k == KindImportExport || k == KindComponent
}

// DocTree is the root of a parsed fragment.
type DocTree struct {
	Title string // Fragment title (from filename)
	Root  *Node  // Document node; its children are the top-level blocks
}

// Node is a structural node in the document tree.
type Node struct {
	Kind     Kind
	Level    int     // Heading level (0 if N/A)
	Name     string  // Component name for KindComponent ("" for fragments <>)
	Raw      string  // Source text spanned by a top-level block, trailing blank lines included
	Children []*Node // Only set on container kinds
}

// Append adds a child and reports whether the node accepted it.
// Leaf kinds never take children.
func (n *Node) Append(child *Node) bool {
	if !n.Kind.IsContainer() || child == nil {
		return false
	}
	n.Children = append(n.Children, child)
	return true
}

// Blocks returns the top-level blocks of the tree.
func (t *DocTree) Blocks() []*Node {
	if t == nil || t.Root == nil {
		return nil
	}
	return t.Root.Children
}
