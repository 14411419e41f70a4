// Package parser converts model-generated homework answers into typed
// records. Responses are segmented by markdown headings: "### KEY" opens a
// named section and "#### Title" opens a step inside an explanation.
//
// All functions are pure and safe for concurrent use.
package parser

import "encoding/json"

// ExplanationStep is one titled step of an explanation.
type ExplanationStep struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// ProblemSolution is one solved problem. Steps are always derived from
// Explanation by SplitSteps.
type ProblemSolution struct {
	Problem     string            `json:"problem" yaml:"problem"`
	Explanation string            `json:"explanation" yaml:"explanation"`
	Answer      string            `json:"answer" yaml:"answer"`
	Steps       []ExplanationStep `json:"steps" yaml:"steps"`
}

// SolveResponse is the result of parsing a multi-problem solve response.
type SolveResponse struct {
	Problems []ProblemSolution `json:"problems" yaml:"problems"`
}

// ImproveResult is a revised answer for a single problem.
type ImproveResult struct {
	ImprovedAnswer      string            `json:"improved_answer" yaml:"improved_answer"`
	ImprovedExplanation string            `json:"improved_explanation" yaml:"improved_explanation"`
	ImprovedSteps       []ExplanationStep `json:"improved_steps" yaml:"improved_steps"`
}

// MarshalJSON renders a nil step list as [] so clients can always iterate.
func (p ProblemSolution) MarshalJSON() ([]byte, error) {
	type plain ProblemSolution
	if p.Steps == nil {
		p.Steps = []ExplanationStep{}
	}
	return json.Marshal(plain(p))
}

func (r SolveResponse) MarshalJSON() ([]byte, error) {
	type plain SolveResponse
	if r.Problems == nil {
		r.Problems = []ProblemSolution{}
	}
	return json.Marshal(plain(r))
}

func (r ImproveResult) MarshalJSON() ([]byte, error) {
	type plain ImproveResult
	if r.ImprovedSteps == nil {
		r.ImprovedSteps = []ExplanationStep{}
	}
	return json.Marshal(plain(r))
}
