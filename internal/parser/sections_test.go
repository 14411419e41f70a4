package parser

import (
	"reflect"
	"testing"

	"github.com/dgallion1/stepwise/internal/mdblock"
)

func TestGroupSections(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		keys   []string
		bodies map[string]string
	}{
		{
			name:   "content before first section is dropped",
			input:  "Sure! Here is the answer.\n\n### ANSWER\n42",
			keys:   []string{"ANSWER"},
			bodies: map[string]string{"ANSWER": "42"},
		},
		{
			name:   "empty heading drops content until next section",
			input:  "### A\na\n###\ndropped\n### B\nb",
			keys:   []string{"A", "B"},
			bodies: map[string]string{"A": "a", "B": "b"},
		},
		{
			name:   "other heading depths stay in the body",
			input:  "### A\n## Big\ntext\n#### Step\nmore\n##### tiny",
			keys:   []string{"A"},
			bodies: map[string]string{"A": "## Big\ntext\n#### Step\nmore\n##### tiny"},
		},
		{
			name:   "duplicate key overwrites and keeps first position",
			input:  "### A\n1\n### B\n2\n### A\n3",
			keys:   []string{"A", "B"},
			bodies: map[string]string{"A": "3", "B": "2"},
		},
		{
			name:   "keys are case and space sensitive apart from trimming",
			input:  "###   answer  \nx\n### Answer\ny",
			keys:   []string{"answer", "Answer"},
			bodies: map[string]string{"answer": "x", "Answer": "y"},
		},
		{
			name:   "heading with no body",
			input:  "### EMPTY\n### FULL\nz",
			keys:   []string{"EMPTY", "FULL"},
			bodies: map[string]string{"EMPTY": "", "FULL": "z"},
		},
		{
			name:   "no sections",
			input:  "plain\n\n# Title",
			keys:   []string{},
			bodies: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := GroupSections(mdblock.Tokenize(tt.input))
			if !reflect.DeepEqual(m.Keys(), tt.keys) {
				t.Errorf("expected keys %q, got %q", tt.keys, m.Keys())
			}
			if m.Len() != len(tt.keys) {
				t.Errorf("expected Len %d, got %d", len(tt.keys), m.Len())
			}
			for k, want := range tt.bodies {
				got, ok := m.Lookup(k)
				if !ok {
					t.Errorf("key %q missing", k)
					continue
				}
				if got != want {
					t.Errorf("key %q: expected %q, got %q", k, want, got)
				}
			}
		})
	}
}

func TestSectionMap_MissingKey(t *testing.T) {
	m := ParseSections("### A\nx")
	if _, ok := m.Lookup("B"); ok {
		t.Error("expected B to be absent")
	}
	if got := m.Get("B"); got != "" {
		t.Errorf("expected empty default, got %q", got)
	}

	var zero SectionMap
	if zero.Get("A") != "" || zero.Len() != 0 {
		t.Error("zero SectionMap should be empty")
	}
}

func TestSplitSteps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ExplanationStep
	}{
		{
			name: "preamble before first step is discarded",
			body: "Let's begin.\n\n#### Step 1\nfirst\n\n#### Step 2\nsecond\n",
			want: []ExplanationStep{{"Step 1", "first"}, {"Step 2", "second"}},
		},
		{
			name: "no step headings yields one detailed step",
			body: "  Multiply both sides.\n\nThen divide.  ",
			want: []ExplanationStep{{DefaultStepTitle, "Multiply both sides.\n\nThen divide."}},
		},
		{
			name: "empty body",
			body: " \n ",
			want: nil,
		},
		{
			name: "step with no content",
			body: "#### Setup\n#### Solve\nx = 2",
			want: []ExplanationStep{{"Setup", ""}, {"Solve", "x = 2"}},
		},
		{
			name: "nested content kept verbatim",
			body: "#### Step 1: **Bold**\n- a\n- b\n\n```\n#### not a step\n```\n",
			want: []ExplanationStep{{"Step 1: **Bold**", "- a\n- b\n\n```\n#### not a step\n```"}},
		},
		{
			name: "depth-3 headings do not split steps",
			body: "#### One\n### inner\ntext",
			want: []ExplanationStep{{"One", "### inner\ntext"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitSteps(tt.body); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSplitSteps_Idempotent(t *testing.T) {
	for _, body := range []string{
		"#### Step 1: A\nC1\n#### Step 2: B\nC2",
		"no headings here",
		"",
		"intro\n#### only\n",
	} {
		first := SplitSteps(body)
		second := SplitSteps(body)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("body %q: %+v != %+v", body, first, second)
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "  hello  ", "hello"},
		{"generic fence", "```\n### A\nx\n```", "### A\nx"},
		{"language tag", "```markdown\n### A\nx\n```", "### A\nx"},
		{"surrounding whitespace", "\n\n```md\nbody\n```\n\n", "body"},
		{"single line", "```body```", "```body```"},
		{"wrapper closes early", "```\na\n```\ntext\n```", "```\na\n```\ntext\n```"},
		{"inner fence with language", "```markdown\n### A\n```python\nx = 1\n```\n```", "### A\n```python\nx = 1\n```"},
		{"bare inner fence", "```markdown\n### A\nSee:\n```\ncode\n```\n### B\nX\n```", "### A\nSee:\n```\ncode\n```\n### B\nX"},
		{"two inner blocks", "```\n```js\na\n```\n```\nb\n```\n```", "```js\na\n```\n```\nb\n```"},
		{"text after fence", "```\ncode\n```\nafter", "```\ncode\n```\nafter"},
		{"only an opening fence", "```\nunterminated", "```\nunterminated"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.input); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripFence_Idempotent(t *testing.T) {
	for _, in := range []string{
		"```markdown\n### A\nSee:\n```\ncode\n```\n```",
		"```\n### A\nx\n```",
	} {
		once := StripFence(in)
		if twice := StripFence(once); twice != once {
			t.Errorf("input %q: second strip changed %q to %q", in, once, twice)
		}
	}
}
