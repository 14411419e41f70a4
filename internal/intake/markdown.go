package intake

import (
	"io"
	"strings"

	"github.com/dgallion1/stepwise/internal/mdblock"
)

// markdownExtractor passes markdown through unchanged; the model reads it
// natively. The first top-level heading, if any, becomes the title.
type markdownExtractor struct{}

func (markdownExtractor) extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Title: stem(filename)}
	tokens := mdblock.Tokenize(string(src))
	for _, tok := range tokens {
		if tok.Kind == mdblock.KindHeading && tok.Depth <= 2 && tok.Text != "" {
			doc.Title = tok.Text
			break
		}
	}

	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Raw)
	}
	doc.Text = strings.TrimSpace(sb.String())
	return doc, nil
}
