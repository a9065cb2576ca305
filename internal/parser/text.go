package parser

import (
	"strings"
	"unicode/utf8"
)

// textParser handles plain text and Markdown.
type textParser struct{}

func (textParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	for _, ext := range []string{".txt", ".md", ".markdown"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (textParser) Parse(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return normalizeText(text), nil
}

// normalizeText unifies line endings and collapses runs of blank lines.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

// binaryDocParser recognizes PDF and legacy DOC files, for which no text
// backend is linked in.
type binaryDocParser struct{}

func (binaryDocParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".pdf") || strings.HasSuffix(name, ".doc")
}

func (binaryDocParser) Parse([]byte) (string, error) {
	return "", ErrNoBackend
}
