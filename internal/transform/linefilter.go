package transform

import "strings"

// HumanOnlyMarker opens a blockquote meant for human readers only.
const HumanOnlyMarker = "> 🤖 *For Humans only*:"

// LineRules configures the line-oriented filter.
type LineRules struct {
	// ImportPrefixes drop preview-tooling import lines.
	ImportPrefixes []string
	// TagPrefixes drop declarative tags such as <Meta ... />.
	TagPrefixes []string
	// SkipMarker opens an annotation blockquote that is dropped up to the
	// first blank or non-quote line.
	SkipMarker string
}

// DefaultLineRules returns the rules used for Storybook-style fragments.
func DefaultLineRules() LineRules {
	return LineRules{
		ImportPrefixes: []string{"import { Meta", "import {Meta"},
		TagPrefixes:    []string{"<Meta"},
		SkipMarker:     HumanOnlyMarker,
	}
}

type lineState int

const (
	stateNormal lineState = iota
	stateSkipping
)

// step advances the filter by one line and reports whether to keep it.
func (r LineRules) step(state lineState, line string) (lineState, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case hasAnyPrefix(trimmed, r.ImportPrefixes):
		return state, false
	case hasAnyPrefix(trimmed, r.TagPrefixes):
		return state, false
	case state == stateNormal && r.SkipMarker != "" && strings.HasPrefix(trimmed, r.SkipMarker):
		return stateSkipping, false
	case state == stateSkipping:
		if trimmed == "" || !strings.HasPrefix(trimmed, ">") {
			return stateNormal, true
		}
		return stateSkipping, false
	default:
		return state, true
	}
}

// Apply filters text line by line. The state starts at normal on every
// call; a skip block still open at the end drops the remaining lines.
func (r LineRules) Apply(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	state := stateNormal
	for _, line := range lines {
		var keep bool
		state, keep = r.step(state, line)
		if keep {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
