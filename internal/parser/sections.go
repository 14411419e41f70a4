package parser

import (
	"strings"

	"github.com/dgallion1/stepwise/internal/mdblock"
)

const (
	sectionDepth = 3
	stepDepth    = 4
)

// SectionMap maps "### KEY" heading text to the trimmed body that follows it.
// Keys are compared exactly; Keys returns them in first-appearance order.
type SectionMap struct {
	keys   []string
	bodies map[string]string
}

// Get returns the body for key, or "" if the key is absent.
func (m SectionMap) Get(key string) string {
	return m.bodies[key]
}

// Lookup returns the body for key and whether the key was present.
func (m SectionMap) Lookup(key string) (string, bool) {
	body, ok := m.bodies[key]
	return body, ok
}

// Keys returns the section keys in document order.
func (m SectionMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of distinct keys.
func (m SectionMap) Len() int {
	return len(m.keys)
}

// GroupSections folds a token sequence into sections keyed by depth-3
// heading text. Tokens outside any section are dropped, as are tokens after a
// depth-3 heading with empty text. A repeated key starts over with an empty
// body; earlier content for that key is discarded.
func GroupSections(tokens []mdblock.Token) SectionMap {
	m := SectionMap{bodies: make(map[string]string)}
	acc := make(map[string]*strings.Builder)
	current := ""

	for _, tok := range tokens {
		if tok.IsHeading(sectionDepth) {
			current = strings.TrimSpace(tok.Text)
			if current == "" {
				continue
			}
			if _, seen := acc[current]; !seen {
				m.keys = append(m.keys, current)
			}
			acc[current] = &strings.Builder{}
			continue
		}
		if current != "" {
			acc[current].WriteString(tok.Raw)
		}
	}

	for key, sb := range acc {
		m.bodies[key] = strings.TrimSpace(sb.String())
	}
	return m
}

// ParseSections runs the fence stripper, tokenizer and grouper over s.
func ParseSections(s string) SectionMap {
	return GroupSections(mdblock.Tokenize(StripFence(s)))
}
