package pdfextract

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from PDF bytes. Returns an empty string
// and nil error for a PDF with no extractable text; the ingest pipeline
// falls back to treating the payload as plain text on error.
func ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(plain); err != nil {
		return "", err
	}
	return out.String(), nil
}
