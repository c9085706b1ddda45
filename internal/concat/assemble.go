package concat

import (
	"bytes"
	"cmp"
	"slices"
)

// Converter turns one fragment's source into clean Markdown.
type Converter interface {
	Convert(name string, src []byte) string
}

// Section is a category together with its fragments.
type Section struct {
	Category  Category
	Fragments []Fragment
}

// Assembler accumulates the output document. It is owned by one pipeline
// run and written out once.
type Assembler struct {
	banner    string
	buf       bytes.Buffer
	sections  int
	fragments int
}

func NewAssembler(banner string) *Assembler {
	return &Assembler{banner: banner}
}

// AddSection appends a category header followed by each text and a blank
// line. Empty sections are skipped entirely.
func (a *Assembler) AddSection(name string, texts []string) {
	if len(texts) == 0 {
		return
	}
	if a.sections == 0 && a.banner != "" {
		a.buf.WriteString(a.banner)
		a.buf.WriteString("\n\n")
	}
	a.buf.WriteString("# ")
	a.buf.WriteString(name)
	a.buf.WriteString("\n\n")
	for _, t := range texts {
		a.buf.WriteString(t)
		a.buf.WriteString("\n\n")
	}
	a.sections++
	a.fragments += len(texts)
}

// Bytes returns the document and false when no section was added.
func (a *Assembler) Bytes() ([]byte, bool) {
	if a.sections == 0 {
		return nil, false
	}
	return bytes.Clone(a.buf.Bytes()), true
}

// Sections returns the number of non-empty sections added.
func (a *Assembler) Sections() int { return a.sections }

// Fragments returns the number of fragments added.
func (a *Assembler) Fragments() int { return a.fragments }

// Concatenate converts and assembles the sections in the order given,
// sorting fragments by name within each section. It returns false when
// there is nothing to write.
func Concatenate(banner string, sections []Section, conv Converter) ([]byte, bool) {
	a := NewAssembler(banner)
	for _, s := range sections {
		frags := slices.Clone(s.Fragments)
		sortFragments(frags)
		texts := make([]string, 0, len(frags))
		for _, f := range frags {
			texts = append(texts, conv.Convert(f.Name, f.Source))
		}
		a.AddSection(s.Category.Name, texts)
	}
	return a.Bytes()
}

func sortFragments(frags []Fragment) {
	slices.SortStableFunc(frags, func(a, b Fragment) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

