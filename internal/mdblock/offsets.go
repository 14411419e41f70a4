package mdblock

import (
	"github.com/yuin/goldmark/ast"
)

// blockStart returns the offset of the first line of a top-level block, or -1
// when the node carries no source positions (thematic breaks, empty headings,
// empty fences without an info string).
func blockStart(n ast.Node, src []byte) int {
	switch b := n.(type) {
	case *ast.FencedCodeBlock:
		if b.Info != nil {
			return lineStart(src, b.Info.Segment.Start)
		}
		// Content lines start one line below the opening fence.
		if b.Lines().Len() > 0 {
			return prevLineStart(src, lineStart(src, b.Lines().At(0).Start))
		}
		return -1
	case *ast.Text:
		return lineStart(src, b.Segment.Start)
	}

	// Lines panics on inline nodes.
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return lineStart(src, n.Lines().At(0).Start)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if p := blockStart(c, src); p >= 0 {
			return p
		}
	}
	return -1
}

// resolveStarts fills unknown (-1) start offsets and makes the sequence
// non-decreasing, with the first block owning everything from offset 0.
// Blocks without positions are single-line constructs in practice, so each
// one is placed on the last non-blank line before the next block.
func resolveStarts(starts []int, src []byte) {
	next := len(src)
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] < 0 || starts[i] > next {
			starts[i] = lastLineBefore(src, next)
		}
		next = starts[i]
	}
	starts[0] = 0
	for i := 1; i < len(starts); i++ {
		if starts[i] < starts[i-1] {
			starts[i] = starts[i-1]
		}
	}
}

func lineStart(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	for off > 0 && src[off-1] != '\n' {
		off--
	}
	return off
}

func prevLineStart(src []byte, ls int) int {
	if ls == 0 {
		return 0
	}
	return lineStart(src, ls-1)
}

// lastLineBefore returns the start of the last non-blank line that begins
// before end. end must be a line start or len(src).
func lastLineBefore(src []byte, end int) int {
	p := end
	for p > 0 {
		ls := lineStart(src, p-1)
		if !isBlank(src[ls:p]) {
			return ls
		}
		p = ls
	}
	return 0
}

func isBlank(line []byte) bool {
	for _, c := range line {
		if c != ' ' && c != '\t' && c != '\n' {
			return false
		}
	}
	return true
}
