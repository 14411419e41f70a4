package intake

import (
	"strings"
	"testing"
)

func TestRenderPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"single page has no heading", []string{"  1. 2+2  "}, "1. 2+2"},
		{"pages get headings", []string{"a", "b"}, "## Page 1\n\na\n\n## Page 2\n\nb"},
		{"blank pages keep numbering", []string{"a", " ", "c"}, "## Page 1\n\na\n\n## Page 3\n\nc"},
		{"no pages", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderPages(tt.pages); got != tt.want {
				t.Errorf("renderPages = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlankPages(t *testing.T) {
	if !blankPages(nil) || !blankPages([]string{"", " \n"}) {
		t.Error("expected blank")
	}
	if blankPages([]string{"", "x"}) {
		t.Error("expected non-blank")
	}
}

func TestExtract_PDFInvalid(t *testing.T) {
	_, err := Extract(strings.NewReader("not a pdf"), "hw.pdf", Options{})
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
