package intake

import (
	"strings"
	"testing"
)

func TestExtract_CSVTable(t *testing.T) {
	input := "x,y\n1,2\n3\n5,6,7\n"
	doc, err := Extract(strings.NewReader(input), "data.csv", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Title != "data" {
		t.Errorf("expected title %q, got %q", "data", doc.Title)
	}
	want := "| x | y |\n| --- | --- |\n| 1 | 2 |\n| 3 |  |\n| 5 | 6 |"
	if doc.Text != want {
		t.Errorf("unexpected table:\n%s\nwant:\n%s", doc.Text, want)
	}
}

func TestExtract_CSVTruncatesRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < maxCSVRows+5; i++ {
		sb.WriteString("1\n")
	}
	doc, err := Extract(strings.NewReader(sb.String()), "big.csv", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.HasSuffix(doc.Text, "(5 more rows omitted)") {
		t.Errorf("expected truncation note, got tail %q", doc.Text[len(doc.Text)-40:])
	}
}

func TestExtract_CSVEmpty(t *testing.T) {
	doc, err := Extract(strings.NewReader(""), "empty.csv", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestIsSupported_Mixed(t *testing.T) {
	for name, want := range map[string]bool{
		"a.csv": true, "b.PDF": true, "c.png": true, "d.exe": false, "noext": false,
	} {
		if got := IsSupported(name); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
}
