package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// maxCSVRows caps how many data rows are rendered into the prompt.
const maxCSVRows = 200

// csvExtractor renders a data table (statistics homework, lab results) as a
// markdown table with the first row as the header.
type csvExtractor struct{}

func (csvExtractor) extract(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{Title: stem(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	rows := records[1:]
	truncated := 0
	if len(rows) > maxCSVRows {
		truncated = len(rows) - maxCSVRows
		rows = rows[:maxCSVRows]
	}

	var sb strings.Builder
	writeRow(&sb, headers, len(headers))
	sb.WriteString("|")
	for range headers {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(&sb, row, len(headers))
	}
	if truncated > 0 {
		fmt.Fprintf(&sb, "\n(%d more rows omitted)\n", truncated)
	}

	doc.Text = strings.TrimSpace(sb.String())
	return doc, nil
}

// writeRow writes one markdown table row padded or cut to width cells.
func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", `\|`)
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}
