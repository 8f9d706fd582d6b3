package extraction

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// CountPages returns the number of pages in a PDF.
func CountPages(pdfBytes []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("CountPages: PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return 0, fmt.Errorf("CountPages: open PDF: %w", err)
	}
	return r.NumPage(), nil
}

// PlainText extracts the text layer of a PDF, one line per text row.
// Image-only statements yield an empty string.
func PlainText(pdfBytes []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PlainText: PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", fmt.Errorf("PlainText: open PDF: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	if text := strings.TrimSpace(strings.Join(pages, "\n")); text != "" {
		return text, nil
	}

	// Row extraction found nothing; try the whole-document text stream.
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("PlainText: read text stream: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("PlainText: read text stream: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
