// Package intake turns uploaded homework files into plain text (with markdown
// headings where the source has them) for inclusion in a solve prompt.
package intake

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file types intake cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// Document is the extracted text of one uploaded homework file.
type Document struct {
	Title string // From the file's own title/heading, else the filename stem
	Text  string // Extracted text, paragraphs separated by blank lines
	Pages int    // Page count for paged formats, 0 otherwise
}

// extractor converts raw file bytes into a Document.
type extractor interface {
	extract(r io.Reader, filename string) (*Document, error)
}

var documentExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".csv":      true,
}

var imageMediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Options tweaks extraction behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// Extract reads a homework document using the extractor for its extension.
func Extract(r io.Reader, filename string, opts Options) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var e extractor
	switch ext {
	case ".txt":
		e = textExtractor{}
	case ".md", ".markdown":
		e = markdownExtractor{}
	case ".html", ".htm":
		e = htmlExtractor{}
	case ".pdf":
		e = pdfExtractor{fallbackPdftotext: opts.PDFFallbackPdftotext}
	case ".docx":
		e = docxExtractor{}
	case ".csv":
		e = csvExtractor{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	doc, err := e.extract(r, filename)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	return doc, nil
}

// IsDocument checks whether a filename has a readable document extension.
func IsDocument(filename string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsImage checks whether a filename is an image the model can look at.
func IsImage(filename string) bool {
	_, ok := imageMediaTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ImageMediaType returns the MIME type for an image filename, or "".
func ImageMediaType(filename string) string {
	return imageMediaTypes[strings.ToLower(filepath.Ext(filename))]
}

// IsSupported reports whether a file can be attached to a solve request.
func IsSupported(filename string) bool {
	return IsDocument(filename) || IsImage(filename)
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// joinParagraphs trims each part and joins the non-empty ones with blank lines.
func joinParagraphs(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func headingPrefix(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " "
}
