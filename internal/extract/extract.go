// Package extract turns uploaded documents into plain text.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrNoText      = errors.New("no text extracted from document")
	ErrUnreadable  = errors.New("unreadable document")
)

// DefaultMaxChars caps the text kept per document.
const DefaultMaxChars = 120_000

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// Supported reports whether FromFile can read the file at path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".text", ".md", ".markdown":
		return true
	}
	return false
}

// IsPDF reports whether path names a PDF file.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// FromFile extracts the text of a PDF or plain-text file.
func FromFile(path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if IsPDF(path) {
		return FromPDF(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return FromText(string(b))
}

// FromText validates a plain-text document.
func FromText(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrNoText
	}
	return s, nil
}

// FromPDF extracts the text of the PDF at path.
func FromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", ErrUnreadable, err)
	}
	defer f.Close()
	return pdfText(r)
}

// FromPDFReader extracts the text of a PDF held in memory or on disk.
func FromPDFReader(ra io.ReaderAt, size int64) (string, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", ErrUnreadable, err)
	}
	return pdfText(r)
}

// pdfText joins page texts with blank lines and collapses runs of spaces.
func pdfText(r *pdf.Reader) (string, error) {
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// one unreadable page should not lose the rest
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	out := Normalize(b.String())
	if out == "" {
		return "", ErrNoText
	}
	return out, nil
}

// Normalize collapses runs of spaces and tabs and trims the result.
func Normalize(s string) string {
	return strings.TrimSpace(horizontalSpace.ReplaceAllString(s, " "))
}

// Truncate keeps at most maxChars runes of s. maxChars <= 0 disables the cap.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
