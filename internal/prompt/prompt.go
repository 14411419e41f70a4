package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SolveSystem instructs the model to answer every problem using the section
// grammar the parser expects.
const SolveSystem = `You are a patient homework tutor. Solve every problem you find in the student's material.

For EACH problem, respond using exactly these markdown headings:

### PROBLEM_TEXT
The problem statement, restated in full.

### EXPLANATION
A step-by-step solution. Start every step with a level-4 heading:
#### Step 1: <short title>
<work for this step>
#### Step 2: <short title>
<work for this step>

### ANSWER
The final answer only.

Rules:
- Use "###" only for the three headings above and "####" only for steps
- When there is more than one problem, put a line containing only ---PROBLEM_SEPARATOR--- between problems
- Do not wrap the response in a code block
- Do not add any text before the first heading`

// ImproveSystem instructs the model to revise a single earlier answer.
const ImproveSystem = `You are a patient homework tutor. A student has feedback on an earlier solution. Revise the solution to address the feedback.

Respond using exactly these markdown headings:

### IMPROVED_EXPLANATION
A step-by-step solution. Start every step with a level-4 heading:
#### Step 1: <short title>
<work for this step>

### IMPROVED_ANSWER
The final answer only.

Do not wrap the response in a code block and do not add text before the first heading.`

// Set holds the system prompts used for each mode.
type Set struct {
	SolveSystem   string `yaml:"solve_system"`
	ImproveSystem string `yaml:"improve_system"`
}

// Default returns the built-in prompts.
func Default() Set {
	return Set{SolveSystem: SolveSystem, ImproveSystem: ImproveSystem}
}

// Load reads prompt overrides from a YAML file. Fields left empty keep their
// defaults. An empty path or a missing file yields the defaults.
func Load(path string) (Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return set, fmt.Errorf("read prompts: %w", err)
	}

	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return set, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	if s := strings.TrimSpace(override.SolveSystem); s != "" {
		set.SolveSystem = s
	}
	if s := strings.TrimSpace(override.ImproveSystem); s != "" {
		set.ImproveSystem = s
	}
	return set, nil
}

// SolveInput is the material a student submitted for solving.
type SolveInput struct {
	Text      string     // Typed question text
	Documents []Document // Extracted worksheet text
	Images    int        // Number of attached images
}

// Document is extracted text from one uploaded file.
type Document struct {
	Title string
	Text  string
}

// ImproveInput is an earlier solution plus the student's feedback.
type ImproveInput struct {
	Problem     string
	Answer      string
	Explanation string
	Feedback    string
}

// BuildSolvePrompt creates the user prompt for a solve request.
func BuildSolvePrompt(in SolveInput) string {
	var sb strings.Builder
	if in.Images > 0 {
		fmt.Fprintf(&sb, "The student attached %d image(s) of their homework. Read every problem in them.\n\n", in.Images)
	}
	for _, doc := range in.Documents {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "Document: %q\n", doc.Title)
		sb.WriteString("---\n")
		sb.WriteString(strings.TrimSpace(doc.Text))
		sb.WriteString("\n\n")
	}
	if text := strings.TrimSpace(in.Text); text != "" {
		if len(in.Documents) > 0 || in.Images > 0 {
			sb.WriteString("Student note:\n")
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		sb.WriteString("Solve the problems in the attached material.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildImprovePrompt creates the user prompt for an improve request.
func BuildImprovePrompt(in ImproveInput) string {
	var sb strings.Builder
	sb.WriteString("Problem:\n")
	sb.WriteString(strings.TrimSpace(in.Problem))
	sb.WriteString("\n\nPrevious explanation:\n")
	sb.WriteString(strings.TrimSpace(in.Explanation))
	sb.WriteString("\n\nPrevious answer:\n")
	sb.WriteString(strings.TrimSpace(in.Answer))
	sb.WriteString("\n\nStudent feedback:\n")
	sb.WriteString(strings.TrimSpace(in.Feedback))
	return sb.String()
}
