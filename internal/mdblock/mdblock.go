// Package mdblock lexes markdown into a flat sequence of top-level block
// tokens, keeping each block's verbatim source text.
package mdblock

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind classifies a block token.
type Kind string

const (
	KindHeading       Kind = "heading"
	KindParagraph     Kind = "paragraph"
	KindList          Kind = "list"
	KindCode          Kind = "code"
	KindBlockquote    Kind = "blockquote"
	KindHTML          Kind = "html"
	KindThematicBreak Kind = "thematic_break"
	KindOther         Kind = "other"
)

// Token is one top-level block of a markdown document.
type Token struct {
	Kind  Kind   // Block kind
	Depth int    // Heading level 1-6; 0 for non-headings
	Text  string // Trimmed inline source of a heading; empty otherwise
	Raw   string // Verbatim source, including trailing blank lines
}

// IsHeading reports whether t is a heading of exactly the given depth.
func (t Token) IsHeading(depth int) bool {
	return t.Kind == KindHeading && t.Depth == depth
}

var md = goldmark.New()

// Tokenize splits s into block tokens. Line endings are normalized to "\n"
// first; concatenating the Raw fields of the result yields that normalized
// input exactly.
func Tokenize(s string) []Token {
	s = normalizeNewlines(s)
	if s == "" {
		return nil
	}
	src := []byte(s)
	doc := md.Parser().Parse(text.NewReader(src))

	var nodes []ast.Node
	var starts []int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		nodes = append(nodes, n)
		starts = append(starts, blockStart(n, src))
	}
	if len(nodes) == 0 {
		return []Token{{Kind: KindOther, Raw: s}}
	}
	resolveStarts(starts, src)

	tokens := make([]Token, len(nodes))
	for i, n := range nodes {
		end := len(src)
		if i+1 < len(nodes) {
			end = starts[i+1]
		}
		tokens[i] = newToken(n, src, string(src[starts[i]:end]))
	}
	return tokens
}

func newToken(n ast.Node, src []byte, raw string) Token {
	tok := Token{Kind: kindOf(n), Raw: raw}
	if h, ok := n.(*ast.Heading); ok {
		tok.Depth = h.Level
		tok.Text = headingText(h, src)
	}
	return tok
}

func kindOf(n ast.Node) Kind {
	switch n.(type) {
	case *ast.Heading:
		return KindHeading
	case *ast.Paragraph, *ast.TextBlock:
		return KindParagraph
	case *ast.List:
		return KindList
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		return KindCode
	case *ast.Blockquote:
		return KindBlockquote
	case *ast.HTMLBlock:
		return KindHTML
	case *ast.ThematicBreak:
		return KindThematicBreak
	default:
		return KindOther
	}
}

// headingText returns the inline markdown of a heading, without the
// surrounding # markers or setext underline.
func headingText(h *ast.Heading, src []byte) string {
	var sb strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		line := lines.At(i)
		sb.Write(line.Value(src))
	}
	return strings.TrimSpace(sb.String())
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
