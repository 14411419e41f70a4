package parser

import (
	"errors"
	"fmt"
)

// Section keys recognized in improve responses.
const (
	KeyImprovedExplanation = "IMPROVED_EXPLANATION"
	KeyImprovedAnswer      = "IMPROVED_ANSWER"
)

// ErrParseFailure is returned when an improve response has neither an
// improved explanation nor an improved answer.
var ErrParseFailure = errors.New("parse failure")

// ParseError describes an improve response that could not be parsed.
type ParseError struct {
	Keys     []string // Section keys that were present
	InputLen int      // Length of the raw response in bytes
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("improve response has no %s or %s section (found %d sections in %d bytes)",
		KeyImprovedExplanation, KeyImprovedAnswer, len(e.Keys), e.InputLen)
}

func (e *ParseError) Unwrap() error {
	return ErrParseFailure
}

// ParseImproveResponse parses a revised single answer. Unlike
// ParseSolveResponse there is no fallback record: if both improved sections
// are missing or empty, it returns a *ParseError wrapping ErrParseFailure.
func ParseImproveResponse(raw string) (ImproveResult, error) {
	sections := ParseSections(raw)
	explanation := sections.Get(KeyImprovedExplanation)
	answer := sections.Get(KeyImprovedAnswer)
	if explanation == "" && answer == "" {
		return ImproveResult{}, &ParseError{Keys: sections.Keys(), InputLen: len(raw)}
	}
	return ImproveResult{
		ImprovedAnswer:      answer,
		ImprovedExplanation: explanation,
		ImprovedSteps:       SplitSteps(explanation),
	}, nil
}
