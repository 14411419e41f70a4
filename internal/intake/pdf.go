package intake

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pdfExtractor handles PDF worksheets. Text comes from the PDF library; when
// that fails or finds nothing, pdftotext is tried if enabled.
type pdfExtractor struct {
	fallbackPdftotext bool
}

func (p pdfExtractor) extract(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	pages, err := pdfPages(data)
	if (err != nil || blankPages(pages)) && p.fallbackPdftotext {
		if alt, altErr := pdftotextPages(data); altErr == nil {
			pages, err = alt, nil
		} else if err == nil {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return &Document{
		Title: stem(filename),
		Text:  renderPages(pages),
		Pages: len(pages),
	}, nil
}

// pdfPages returns the plain text of each page. Pages that fail to decode
// come back empty so numbering stays aligned with the document.
func pdfPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

// pdftotextPages runs poppler's pdftotext over data via stdin. Pages are
// separated by form feeds in its output.
func pdftotextPages(data []byte) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext ends the last page with a form feed too.
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// renderPages joins page texts. Multi-page documents get a "## Page N"
// heading per non-empty page so the model can cite where a problem is.
func renderPages(pages []string) string {
	if len(pages) == 1 {
		return strings.TrimSpace(pages[0])
	}
	var parts []string
	for i, page := range pages {
		if page = strings.TrimSpace(page); page != "" {
			parts = append(parts, fmt.Sprintf("%sPage %d\n\n%s", headingPrefix(2), i+1, page))
		}
	}
	return joinParagraphs(parts)
}

func blankPages(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
