package parser

import (
	"strings"

	"github.com/dgallion1/stepwise/internal/mdblock"
)

// DefaultStepTitle titles the single step produced when an explanation has
// no "####" headings.
const DefaultStepTitle = "Detailed Explanation"

// SplitSteps splits an explanation into steps at depth-4 headings. Content
// before the first depth-4 heading is not part of any step. A non-empty body
// with no step headings yields one DefaultStepTitle step holding the whole
// body; an empty body yields no steps.
func SplitSteps(body string) []ExplanationStep {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	var steps []ExplanationStep
	var title string
	var content strings.Builder
	open := false

	flush := func() {
		if open {
			steps = append(steps, ExplanationStep{
				Title:   title,
				Content: strings.TrimSpace(content.String()),
			})
		}
		content.Reset()
	}

	for _, tok := range mdblock.Tokenize(body) {
		if tok.IsHeading(stepDepth) {
			flush()
			title = strings.TrimSpace(tok.Text)
			open = true
			continue
		}
		if open {
			content.WriteString(tok.Raw)
		}
	}
	flush()

	if len(steps) == 0 {
		return []ExplanationStep{{Title: DefaultStepTitle, Content: body}}
	}
	return steps
}
