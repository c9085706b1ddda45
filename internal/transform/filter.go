package transform

import "github.com/dgallion1/mdxdigest/internal/doctree"

// StripDialect removes top-level import/export and component blocks from
// the tree in place and returns the number of blocks removed. Nested nodes
// are never inspected.
func StripDialect(tree *doctree.DocTree) int {
	if tree == nil || tree.Root == nil {
		return 0
	}
	kept := tree.Root.Children[:0]
	removed := 0
	for _, n := range tree.Root.Children {
		if n.Kind.IsDialect() {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	clear(tree.Root.Children[len(kept):])
	tree.Root.Children = kept
	return removed
}
