package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MinUsableTextLength is the threshold below which an extraction is
// considered empty (scanned resume) and the vision fallback kicks in.
const MinUsableTextLength = 40

// ExtractText extracts plain text from a PDF. Returns the concatenated
// text of all pages; pages that fail to decode are skipped.
func ExtractText(pdfData []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// HasUsableText reports whether extracted text is substantial enough to
// skip vision parsing
func HasUsableText(text string) bool {
	return len(strings.TrimSpace(text)) >= MinUsableTextLength
}
