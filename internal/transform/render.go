package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/mdxdigest/internal/doctree"
)

// ErrInvalidSpan reports a top-level block without usable source text.
var ErrInvalidSpan = errors.New("invalid block span")

// Render writes the tree back out as Markdown. Every top-level block
// carries the exact source text it was parsed from, so a tree with nothing
// stripped renders to its original input byte for byte.
func Render(tree *doctree.DocTree) (string, error) {
	if tree == nil || tree.Root == nil {
		return "", fmt.Errorf("render: %w: nil tree", ErrInvalidSpan)
	}
	var sb strings.Builder
	for i, n := range tree.Root.Children {
		if n == nil {
			return "", fmt.Errorf("render block %d: %w: nil node", i, ErrInvalidSpan)
		}
		if n.Kind.IsDialect() {
			return "", fmt.Errorf("render block %d: %w: %s has no markdown form", i, ErrInvalidSpan, n.Kind)
		}
		sb.WriteString(n.Raw)
	}
	return sb.String(), nil
}
