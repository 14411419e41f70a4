package parser

import "strings"

// ProblemSeparator divides problems in a multi-problem solve response.
const ProblemSeparator = "---PROBLEM_SEPARATOR---"

// Section keys recognized in solve responses.
const (
	KeyProblemText = "PROBLEM_TEXT"
	KeyExplanation = "EXPLANATION"
	KeyAnswer      = "ANSWER"
)

// Values used for the synthetic record returned when nothing parses.
const (
	FallbackProblemText = "Error parsing problem text"
	FallbackStepTitle   = "Error"
)

// SplitProblems splits a raw response on ProblemSeparator, dropping chunks
// that are blank. Fences are stripped per chunk by ParseProblem, so a single
// fence wrapped around several problems leaves the first chunk inside an
// unclosed code block and that problem is dropped.
func SplitProblems(raw string) []string {
	var chunks []string
	for _, chunk := range strings.Split(raw, ProblemSeparator) {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// ParseProblem parses one chunk. ok is false when the chunk has no problem
// text, explanation or answer.
func ParseProblem(chunk string) (ProblemSolution, bool) {
	sections := ParseSections(chunk)
	p := ProblemSolution{
		Problem:     sections.Get(KeyProblemText),
		Explanation: sections.Get(KeyExplanation),
		Answer:      sections.Get(KeyAnswer),
	}
	if p.Problem == "" && p.Explanation == "" && p.Answer == "" {
		return ProblemSolution{}, false
	}
	p.Steps = SplitSteps(p.Explanation)
	return p, true
}

// ParseSolveResponse parses a full solve response into problems. It never
// fails: non-empty input that yields no problems produces a single fallback
// record carrying the raw input, and blank input produces no problems.
func ParseSolveResponse(raw string) SolveResponse {
	var resp SolveResponse
	for _, chunk := range SplitProblems(raw) {
		if p, ok := ParseProblem(chunk); ok {
			resp.Problems = append(resp.Problems, p)
		}
	}

	if len(resp.Problems) == 0 && strings.TrimSpace(raw) != "" {
		resp.Problems = []ProblemSolution{fallbackProblem(raw)}
	}
	if resp.Problems == nil {
		resp.Problems = []ProblemSolution{}
	}
	return resp
}

func fallbackProblem(raw string) ProblemSolution {
	return ProblemSolution{
		Problem:     FallbackProblemText,
		Explanation: raw,
		Steps:       []ExplanationStep{{Title: FallbackStepTitle, Content: raw}},
	}
}

// IsFallback reports whether p is the synthetic record produced when a solve
// response could not be parsed.
func IsFallback(p ProblemSolution) bool {
	return p.Problem == FallbackProblemText && p.Answer == "" &&
		len(p.Steps) == 1 && p.Steps[0].Title == FallbackStepTitle
}
