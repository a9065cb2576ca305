package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Parser defines a document text extractor.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (string, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates no parser handles the document format.
var ErrUnsupported = errors.New("unsupported document format")

// ErrNoBackend indicates the format is recognized but no text backend is
// available to read it.
var ErrNoBackend = errors.New("no text extraction backend for format")

// ExcerptChars bounds Document.Excerpt.
const ExcerptChars = 1200

// Document is the outcome of text extraction.
type Document struct {
	Format  string
	Text    string
	Excerpt string
	Chars   int
	// Placeholder is set when extraction degraded to a descriptive message.
	Placeholder bool
}

// Supported reports whether some registered parser accepts filename.
func Supported(filename string) bool {
	for _, p := range registry {
		if p.CanParse(filename) {
			return true
		}
	}
	return false
}

// Extract converts document bytes into plain text. Formats without an
// extraction backend degrade to a placeholder document instead of failing.
func Extract(filename string, content []byte) (Document, error) {
	doc := Document{Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")}
	for _, p := range registry {
		if !p.CanParse(filename) {
			continue
		}
		text, err := p.Parse(content)
		if errors.Is(err, ErrNoBackend) {
			doc.Placeholder = true
			doc.Text = fmt.Sprintf("%s text extraction is not available; upload the source data as CSV or XLSX.", strings.ToUpper(doc.Format))
			doc.Excerpt = doc.Text
			return doc, nil
		}
		if err != nil {
			return doc, fmt.Errorf("parse %s: %w", doc.Format, err)
		}
		doc.Text = text
		doc.Chars = len([]rune(text))
		doc.Excerpt = Excerpt(text, ExcerptChars)
		return doc, nil
	}
	return doc, ErrUnsupported
}

// ExtractFile reads a file from disk and extracts its text.
func ExtractFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read file: %w", err)
	}
	return Extract(path, data)
}

// Excerpt collapses whitespace and truncates to limit characters.
func Excerpt(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= limit {
		return flat
	}
	return string(r[:limit]) + "…"
}

func init() {
	Register(textParser{})
	Register(docxParser{})
	Register(binaryDocParser{})
}
