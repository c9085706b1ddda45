package transform

import (
	"bytes"
	"log/slog"

	"github.com/adrg/frontmatter"

	"github.com/dgallion1/mdxdigest/internal/parser"
)

// Conversion is the outcome of converting one fragment.
type Conversion struct {
	Text     string
	Degraded bool  // true when only the line filter ran
	Err      error // structural failure that caused the degradation
	Removed  int   // dialect blocks stripped structurally
}

// Converter turns MDX fragments into plain Markdown. It never fails:
// fragments that cannot be parsed are run through the line filter alone.
type Converter struct {
	rules            LineRules
	stripFrontMatter bool
	log              *slog.Logger
}

// Option customizes a Converter.
type Option func(*Converter)

func WithLineRules(r LineRules) Option {
	return func(c *Converter) { c.rules = r }
}

// WithFrontMatter enables removal of a leading YAML/TOML/JSON front-matter
// block before conversion.
func WithFrontMatter(strip bool) Option {
	return func(c *Converter) { c.stripFrontMatter = strip }
}

func NewConverter(log *slog.Logger, opts ...Option) *Converter {
	if log == nil {
		log = slog.Default()
	}
	c := &Converter{
		rules: DefaultLineRules(),
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert returns the cleaned Markdown for a fragment.
func (c *Converter) Convert(name string, src []byte) string {
	return c.Run(name, src).Text
}

// Run converts a fragment and reports which path produced the text.
func (c *Converter) Run(name string, src []byte) Conversion {
	log := c.log.With("fragment", name)

	if c.stripFrontMatter {
		src = c.trimFrontMatter(log, src)
	}

	text, removed, err := c.structural(name, src)
	if err != nil {
		log.Warn("structural conversion failed, using line filter", "error", err)
		return Conversion{
			Text:     c.rules.Apply(string(src)),
			Degraded: true,
			Err:      err,
		}
	}
	return Conversion{
		Text:    c.rules.Apply(text),
		Removed: removed,
	}
}

func (c *Converter) structural(name string, src []byte) (string, int, error) {
	tree, err := parserFor(name).Parse(bytes.NewReader(src), name)
	if err != nil {
		return "", 0, err
	}
	removed := StripDialect(tree)
	out, err := Render(tree)
	if err != nil {
		return "", 0, err
	}
	return out, removed, nil
}

func (c *Converter) trimFrontMatter(log *slog.Logger, src []byte) []byte {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		log.Warn("front matter parse failed, keeping source", "error", err)
		return src
	}
	if len(meta) > 0 {
		log.Debug("stripped front matter", "keys", len(meta))
	}
	return body
}

// parserFor picks a parser by extension. Unknown extensions are treated as
// MDX, which accepts any plain Markdown.
func parserFor(name string) parser.Parser {
	p, err := parser.ForFile(name)
	if err != nil {
		return &parser.MDXParser{}
	}
	return p
}

