package parser

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

const wellFormed = "### PROBLEM_TEXT\nP\n### EXPLANATION\n#### Step 1: A\nC1\n#### Step 2: B\nC2\n### ANSWER\nX"

func problemWith(text, answer string) string {
	return "### PROBLEM_TEXT\n" + text + "\n\n### EXPLANATION\n#### Step 1: Work\nDo it.\n\n### ANSWER\n" + answer + "\n"
}

func mustOneProblem(t *testing.T, resp SolveResponse) ProblemSolution {
	t.Helper()
	if len(resp.Problems) != 1 {
		t.Fatalf("expected 1 problem, got %d: %+v", len(resp.Problems), resp.Problems)
	}
	return resp.Problems[0]
}

func TestParseSolveResponse_RoundTrip(t *testing.T) {
	p := mustOneProblem(t, ParseSolveResponse(wellFormed))

	if p.Problem != "P" {
		t.Errorf("expected problem %q, got %q", "P", p.Problem)
	}
	if p.Answer != "X" {
		t.Errorf("expected answer %q, got %q", "X", p.Answer)
	}
	if want := "#### Step 1: A\nC1\n#### Step 2: B\nC2"; p.Explanation != want {
		t.Errorf("expected explanation %q, got %q", want, p.Explanation)
	}
	want := []ExplanationStep{
		{Title: "Step 1: A", Content: "C1"},
		{Title: "Step 2: B", Content: "C2"},
	}
	if !reflect.DeepEqual(p.Steps, want) {
		t.Errorf("expected steps %+v, got %+v", want, p.Steps)
	}
	if IsFallback(p) {
		t.Error("well-formed response reported as fallback")
	}
}

func TestParseSolveResponse_MultiProblemOrder(t *testing.T) {
	raw := problemWith("first", "1") + ProblemSeparator + "\n" + problemWith("second", "2")
	resp := ParseSolveResponse(raw)
	if len(resp.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(resp.Problems))
	}
	for i, want := range []struct{ problem, answer string }{{"first", "1"}, {"second", "2"}} {
		got := resp.Problems[i]
		if got.Problem != want.problem || got.Answer != want.answer {
			t.Errorf("problem %d: expected (%q, %q), got (%q, %q)", i, want.problem, want.answer, got.Problem, got.Answer)
		}
	}
}

func TestParseSolveResponse_NoStructureFallback(t *testing.T) {
	p := mustOneProblem(t, ParseSolveResponse("just plain text"))

	if p.Problem != "Error parsing problem text" {
		t.Errorf("unexpected fallback problem %q", p.Problem)
	}
	if p.Answer != "" {
		t.Errorf("expected empty answer, got %q", p.Answer)
	}
	if p.Explanation != "just plain text" {
		t.Errorf("expected raw explanation, got %q", p.Explanation)
	}
	want := []ExplanationStep{{Title: "Error", Content: "just plain text"}}
	if !reflect.DeepEqual(p.Steps, want) {
		t.Errorf("expected steps %+v, got %+v", want, p.Steps)
	}
	if !IsFallback(p) {
		t.Error("expected IsFallback")
	}
}

func TestParseSolveResponse_FallbackKeepsWholeInput(t *testing.T) {
	raw := "### NOTES\nnothing useful\n" + ProblemSeparator + "\n  \n"
	p := mustOneProblem(t, ParseSolveResponse(raw))
	if p.Explanation != raw {
		t.Errorf("expected untrimmed input as explanation, got %q", p.Explanation)
	}
	if p.Steps[0].Content != raw {
		t.Errorf("expected untrimmed input as step content, got %q", p.Steps[0].Content)
	}
}

func TestParseSolveResponse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t", "\n\n"} {
		resp := ParseSolveResponse(in)
		if resp.Problems == nil || len(resp.Problems) != 0 {
			t.Errorf("input %q: expected empty non-nil problems, got %#v", in, resp.Problems)
		}
	}

	b, err := json.Marshal(ParseSolveResponse(""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"problems":[]}` {
		t.Errorf("unexpected JSON %s", b)
	}
}

func TestParseSolveResponse_FenceStripping(t *testing.T) {
	want := ParseSolveResponse(wellFormed)
	for _, wrapped := range []string{
		"```\n" + wellFormed + "\n```",
		"```markdown\n" + wellFormed + "\n```",
		"\n  ```md\n" + wellFormed + "\n```  \n",
	} {
		if got := ParseSolveResponse(wrapped); !reflect.DeepEqual(got, want) {
			t.Errorf("input %q: expected %+v, got %+v", wrapped, want, got)
		}
	}
}

func TestParseSolveResponse_WrapperWithBareInnerFence(t *testing.T) {
	raw := "```markdown\n### PROBLEM_TEXT\nP\n### EXPLANATION\nSee:\n```\ncode\n```\n### ANSWER\nX\n```"
	p := mustOneProblem(t, ParseSolveResponse(raw))

	if IsFallback(p) {
		t.Fatalf("wrapper with an inner code block fell back: %+v", p)
	}
	if p.Problem != "P" || p.Answer != "X" {
		t.Errorf("expected (P, X), got (%q, %q)", p.Problem, p.Answer)
	}
	if want := "See:\n```\ncode\n```"; p.Explanation != want {
		t.Errorf("inner fence should stay in the body: expected %q, got %q", want, p.Explanation)
	}
}

func TestParseSolveResponse_FencedMultiProblem(t *testing.T) {
	// Fences are stripped per chunk. The opening fence lands in the first
	// chunk, which becomes one unclosed code block and is dropped.
	raw := "```markdown\n" + problemWith("a", "1") + ProblemSeparator + "\n" + problemWith("b", "2") + "```"
	p := mustOneProblem(t, ParseSolveResponse(raw))

	if p.Problem != "b" {
		t.Errorf("expected only the second problem to survive, got %q", p.Problem)
	}
	if !strings.HasPrefix(p.Answer, "2") {
		t.Errorf("expected answer starting with 2, got %q", p.Answer)
	}
}

func TestParseSolveResponse_DuplicateKeyLastWins(t *testing.T) {
	raw := "### PROBLEM_TEXT\nP\n### ANSWER\nfirst\n### EXPLANATION\nwhy\n### ANSWER\nsecond"
	p := mustOneProblem(t, ParseSolveResponse(raw))
	if p.Answer != "second" {
		t.Errorf("expected last ANSWER to win, got %q", p.Answer)
	}
	if p.Explanation != "why" {
		t.Errorf("expected explanation %q, got %q", "why", p.Explanation)
	}
}

func TestParseSolveResponse_DropsUnusableChunks(t *testing.T) {
	raw := "### NOTES\nignored\n" + ProblemSeparator + "\n" + problemWith("kept", "3")
	p := mustOneProblem(t, ParseSolveResponse(raw))
	if p.Problem != "kept" {
		t.Errorf("expected problem %q, got %q", "kept", p.Problem)
	}
}

func TestParseSolveResponse_PartialSections(t *testing.T) {
	p := mustOneProblem(t, ParseSolveResponse("### ANSWER\n42"))
	if p.Problem != "" || p.Answer != "42" {
		t.Errorf("expected (\"\", 42), got (%q, %q)", p.Problem, p.Answer)
	}
	if len(p.Steps) != 0 {
		t.Errorf("expected no steps, got %+v", p.Steps)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"steps":[]`) {
		t.Errorf("expected steps rendered as [], got %s", b)
	}
}

func TestParseSolveResponse_CodeBlockHidesHeadings(t *testing.T) {
	raw := "### EXPLANATION\n```\n### ANSWER\nnot this\n```\n### ANSWER\n5"
	p := mustOneProblem(t, ParseSolveResponse(raw))
	if p.Answer != "5" {
		t.Errorf("expected answer 5, got %q", p.Answer)
	}
	if !strings.Contains(p.Explanation, "not this") {
		t.Errorf("expected code block in explanation, got %q", p.Explanation)
	}
}

func TestParseSolveResponse_Concurrent(t *testing.T) {
	raw := problemWith("a", "1") + ProblemSeparator + problemWith("b", "2")
	want := ParseSolveResponse(raw)

	var wg sync.WaitGroup
	results := make([]SolveResponse, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ParseSolveResponse(raw)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("goroutine %d: got %+v", i, got)
		}
	}
}

func TestParseImproveResponse(t *testing.T) {
	raw := "Here you go:\n### IMPROVED_EXPLANATION\n#### Step 1: Redo\nwork\n#### Step 2: Check\nok\n### IMPROVED_ANSWER\n7\n"
	res, err := ParseImproveResponse(raw)
	if err != nil {
		t.Fatalf("ParseImproveResponse: %v", err)
	}
	if res.ImprovedAnswer != "7" {
		t.Errorf("expected answer 7, got %q", res.ImprovedAnswer)
	}
	if want := "#### Step 1: Redo\nwork\n#### Step 2: Check\nok"; res.ImprovedExplanation != want {
		t.Errorf("expected explanation %q, got %q", want, res.ImprovedExplanation)
	}
	want := []ExplanationStep{
		{Title: "Step 1: Redo", Content: "work"},
		{Title: "Step 2: Check", Content: "ok"},
	}
	if !reflect.DeepEqual(res.ImprovedSteps, want) {
		t.Errorf("expected steps %+v, got %+v", want, res.ImprovedSteps)
	}
}

func TestParseImproveResponse_AnswerOnly(t *testing.T) {
	res, err := ParseImproveResponse("```\n### IMPROVED_ANSWER\n12\n```")
	if err != nil {
		t.Fatalf("ParseImproveResponse: %v", err)
	}
	if res.ImprovedAnswer != "12" || res.ImprovedExplanation != "" || len(res.ImprovedSteps) != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"improved_answer":"12","improved_explanation":"","improved_steps":[]}`; string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}

func TestParseImproveResponse_Failure(t *testing.T) {
	for _, in := range []string{"### UNRELATED\nfoo", "", "plain text", "### IMPROVED_ANSWER\n\n### IMPROVED_EXPLANATION\n"} {
		res, err := ParseImproveResponse(in)
		if !errors.Is(err, ErrParseFailure) {
			t.Errorf("input %q: expected ErrParseFailure, got %v", in, err)
		}
		if !reflect.DeepEqual(res, ImproveResult{}) {
			t.Errorf("input %q: expected zero result, got %+v", in, res)
		}
	}

	_, err := ParseImproveResponse("### UNRELATED\nfoo")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !reflect.DeepEqual(perr.Keys, []string{"UNRELATED"}) {
		t.Errorf("expected keys [UNRELATED], got %v", perr.Keys)
	}
	if perr.InputLen != len("### UNRELATED\nfoo") {
		t.Errorf("unexpected input length %d", perr.InputLen)
	}
}

func TestParseProblem(t *testing.T) {
	p, ok := ParseProblem("### PROBLEM_TEXT\nonly text")
	if !ok {
		t.Fatal("expected problem text alone to be usable")
	}
	if p.Problem != "only text" {
		t.Errorf("expected %q, got %q", "only text", p.Problem)
	}

	if _, ok := ParseProblem("### OTHER\nx"); ok {
		t.Error("expected chunk without known sections to be unusable")
	}
}

func TestSplitProblems(t *testing.T) {
	chunks := SplitProblems("a" + ProblemSeparator + "  " + ProblemSeparator + "b")
	if !reflect.DeepEqual(chunks, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %q", chunks)
	}

	// Separator matching is exact and case-sensitive.
	for _, in := range []string{"a---problem_separator---b", "a--PROBLEM_SEPARATOR--b"} {
		if got := SplitProblems(in); len(got) != 1 || got[0] != in {
			t.Errorf("input %q: expected one unchanged chunk, got %q", in, got)
		}
	}

	// The raw text is split before any fence is removed.
	fenced := "```\na\n" + ProblemSeparator + "\nb\n```"
	if got := SplitProblems(fenced); len(got) != 2 || got[0] != "```\na\n" {
		t.Errorf("expected split inside the fence, got %q", got)
	}
}
