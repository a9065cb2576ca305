package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

type docxParser struct{}

func (docxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".docx")
}

var (
	docxParaEnd = regexp.MustCompile(`</w:p>`)
	docxTab     = regexp.MustCompile(`<w:tab/>`)
	xmlTag      = regexp.MustCompile(`<[^>]+>`)
)

func (docxParser) Parse(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}
	// One paragraph per line, blank line between paragraphs.
	s := docxParaEnd.ReplaceAllString(string(docXML), "\n\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = html.UnescapeString(xmlTag.ReplaceAllString(s, ""))
	return normalizeText(s), nil
}
